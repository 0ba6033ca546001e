package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-app-api/internal/realtime"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) realtime.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env realtime.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func readUsers(t *testing.T, conn *websocket.Conn) []realtime.UserPresence {
	t.Helper()
	env := readEnvelope(t, conn)
	require.Equal(t, realtime.EventUpdateUsers, env.Type)
	var users []realtime.UserPresence
	require.NoError(t, json.Unmarshal(env.Payload, &users))
	return users
}

func requireClosedWithAuthError(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	env := readEnvelope(t, conn)
	require.Equal(t, realtime.EventError, env.Type)
	var payload realtime.ErrorEvent
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, realtime.ErrorCodeAuth, payload.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestConnect_ReceivesPresence(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn := dialWS(t, srv, env.seedUser(t, "u-1", "Alice"))

	require.Equal(t, []realtime.UserPresence{{Name: "Alice", Status: "active"}}, readUsers(t, conn))
	require.Equal(t, 1, env.registry.Len())
}

func TestConnect_MissingToken(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn := dialWS(t, srv, "")

	requireClosedWithAuthError(t, conn)
	require.Equal(t, 0, env.registry.Len())
}

func TestConnect_InvalidToken(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	// Signed correctly, but the account does not exist.
	ghost, err := env.tokens.GenerateToken("ghost", "ghost@example.com", "Ghost")
	require.NoError(t, err)

	for _, token := range []string{"not-a-jwt", ghost} {
		conn := dialWS(t, srv, token)
		requireClosedWithAuthError(t, conn)
	}
	require.Equal(t, 0, env.registry.Len())
}

func TestConnect_TypingMessagingAndDisconnect(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	alice := dialWS(t, srv, env.seedUser(t, "u-1", "Alice"))
	req.Len(readUsers(t, alice), 1)

	bob := dialWS(t, srv, env.seedUser(t, "u-2", "Bob"))
	both := []realtime.UserPresence{{Name: "Alice", Status: "active"}, {Name: "Bob", Status: "active"}}
	req.Equal(both, readUsers(t, bob))
	req.Equal(both, readUsers(t, alice))

	req.NoError(alice.WriteJSON(map[string]string{"type": "typing"}))
	typing := []realtime.UserPresence{{Name: "Alice", Status: "typing..."}, {Name: "Bob", Status: "active"}}
	req.Equal(typing, readUsers(t, alice))
	req.Equal(typing, readUsers(t, bob))

	req.NoError(alice.WriteJSON(map[string]string{"type": "sendMessage", "payload": "hello"}))
	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := readEnvelope(t, conn)
		req.Equal(realtime.EventNewMessage, msg.Type)
		req.JSONEq(`{"sender":"Alice","content":"hello"}`, string(msg.Payload))
	}

	// Unknown events are ignored and the connection stays open.
	req.NoError(bob.WriteJSON(map[string]string{"type": "dance"}))

	// Alice leaves while still typing.
	req.NoError(alice.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	req.Equal([]realtime.UserPresence{{Name: "Bob", Status: "active"}}, readUsers(t, bob))
	req.Eventually(func() bool { return env.registry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestCheckOrigin(t *testing.T) {
	env := newTestEnv(t)
	check := checkOrigin(env.cfg.App)

	newReq := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "http://chat.example.com/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	require.True(t, check(newReq("")))
	require.True(t, check(newReq(env.cfg.App.CORSOrigin)))
	require.True(t, check(newReq("http://chat.example.com")))
	require.False(t, check(newReq("https://evil.example.net")))
}
