package realtime

import (
	"sync"

	"chat-app-api/internal/models"
)

// Status is the presence state of a live connection.
type Status string

const (
	StatusActive Status = "active"
	StatusTyping Status = "typing..."
)

// Connection is one live entry of the registry.
type Connection struct {
	Identity models.Identity
	Client   Client
	Status   Status
}

// Change is handed to the Publisher after every applied mutation. Subject is
// the identity id the mutation was about.
type Change struct {
	Subject  string
	Snapshot []Connection
}

// Publisher receives registry changes. Publish is called with the registry
// lock held, so it must not block and must not call back into the Registry.
type Publisher interface {
	Publish(change Change)
}

// Registry maps identity ids to their single live connection. It owns all
// presence state; every mutation goes through Register, Unregister, Release
// or MarkTyping and is published in the order it was applied.
type Registry struct {
	mu        sync.Mutex
	conns     map[string]*Connection
	order     []string
	publisher Publisher
}

// NewRegistry creates an empty registry. A nil publisher disables broadcasts.
func NewRegistry(publisher Publisher) *Registry {
	return &Registry{
		conns:     make(map[string]*Connection),
		publisher: publisher,
	}
}

// Register inserts or replaces the connection for identity.ID. A previous
// connection for the same id is superseded silently and keeps its position
// in the snapshot order.
func (r *Registry) Register(identity models.Identity, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.conns[identity.ID]; ok {
		conn.Identity = identity
		conn.Client = client
		conn.Status = StatusActive
	} else {
		r.conns[identity.ID] = &Connection{Identity: identity, Client: client, Status: StatusActive}
		r.order = append(r.order, identity.ID)
	}
	r.publishLocked(identity.ID)
}

// Unregister removes the connection for id. It returns false when nothing
// was registered, in which case nothing is published.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[id]; !ok {
		return false
	}
	r.removeLocked(id)
	r.publishLocked(id)
	return true
}

// Release removes the connection for id only if client is still the one
// registered. A superseded client releasing late leaves its successor alone.
func (r *Registry) Release(id string, client Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	if !ok || conn.Client != client {
		return false
	}
	r.removeLocked(id)
	r.publishLocked(id)
	return true
}

// MarkTyping sets the status of id to typing or active. It returns false,
// publishing nothing, when id is not registered.
func (r *Registry) MarkTyping(id string, typing bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	if !ok {
		return false
	}
	r.markLocked(conn, typing)
	return true
}

// MarkTypingFor is MarkTyping on behalf of client. It returns false when
// client is no longer the registered connection for id.
func (r *Registry) MarkTypingFor(id string, client Client, typing bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	if !ok || conn.Client != client {
		return false
	}
	r.markLocked(conn, typing)
	return true
}

// Owns reports whether client is the registered connection for id.
func (r *Registry) Owns(id string, client Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	return ok && conn.Client == client
}

// Snapshot returns a point-in-time copy of all live connections in
// registration order.
func (r *Registry) Snapshot() []Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

func (r *Registry) removeLocked(id string) {
	delete(r.conns, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) markLocked(conn *Connection, typing bool) {
	conn.Status = StatusActive
	if typing {
		conn.Status = StatusTyping
	}
	r.publishLocked(conn.Identity.ID)
}

func (r *Registry) snapshotLocked() []Connection {
	snapshot := make([]Connection, 0, len(r.order))
	for _, id := range r.order {
		snapshot = append(snapshot, *r.conns[id])
	}
	return snapshot
}

func (r *Registry) publishLocked(subject string) {
	if r.publisher == nil {
		return
	}
	r.publisher.Publish(Change{Subject: subject, Snapshot: r.snapshotLocked()})
}
