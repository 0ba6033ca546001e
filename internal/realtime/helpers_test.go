package realtime

import (
	"encoding/json"
	"sync"
	"testing"

	"chat-app-api/internal/models"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeClient) Send(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.frames = append(c.frames, message)
	return true
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeClient) envelopes(t *testing.T) []Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, 0, len(c.frames))
	for _, f := range c.frames {
		var env Envelope
		require.NoError(t, json.Unmarshal(f, &env))
		out = append(out, env)
	}
	return out
}

func (c *fakeClient) ofType(t *testing.T, typ EventType) []Envelope {
	t.Helper()
	var out []Envelope
	for _, env := range c.envelopes(t) {
		if env.Type == typ {
			out = append(out, env)
		}
	}
	return out
}

// lastUsers returns the payload of the latest updateUsers event.
func (c *fakeClient) lastUsers(t *testing.T) []UserPresence {
	t.Helper()
	updates := c.ofType(t, EventUpdateUsers)
	require.NotEmpty(t, updates, "no updateUsers received")
	var users []UserPresence
	require.NoError(t, json.Unmarshal(updates[len(updates)-1].Payload, &users))
	return users
}

type recordingPublisher struct {
	changes []Change
}

func (p *recordingPublisher) Publish(change Change) {
	p.changes = append(p.changes, change)
}

func identity(id, name string) models.Identity {
	return models.Identity{ID: id, AccountName: id + "@example.com", DisplayName: name}
}
