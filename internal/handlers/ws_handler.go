package handlers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"chat-app-api/internal/config"
	"chat-app-api/internal/middleware"
	"chat-app-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// wsClient implements realtime.Client by wrapping a websocket connection.
// Frames are queued on a buffered channel and written by writePump; a full
// queue drops the frame.
type wsClient struct {
	conn *websocket.Conn
	cfg  config.Gateway
	log  *zap.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newWSClient(conn *websocket.Conn, cfg config.Gateway, log *zap.Logger) *wsClient {
	return &wsClient{
		conn: conn,
		cfg:  cfg,
		log:  log,
		send: make(chan []byte, cfg.SendBuffer),
	}
}

func (c *wsClient) Send(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		c.log.Warn("send buffer full, dropping frame")
		return false
	}
}

// Close stops accepting frames. writePump flushes what is queued, sends a
// close frame and closes the connection.
func (c *wsClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump owns all writes to the connection, including keepalive pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteTimeout)); err != nil {
				// ping failed; reader loop will exit on next error
				return
			}
		}
	}
}

// WSHandler is the transport side of the connection gateway.
type WSHandler struct {
	gateway  *realtime.Gateway
	cfg      config.Gateway
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(gateway *realtime.Gateway, cfg config.Gateway, app config.App, log *zap.Logger) *WSHandler {
	return &WSHandler{
		gateway: gateway,
		cfg:     cfg,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(app),
		},
	}
}

// checkOrigin accepts same-host requests, clients that send no Origin, and
// the configured frontend origin.
func checkOrigin(app config.App) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || app.CORSOrigin == "*" || origin == app.CORSOrigin {
			return true
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

// Connect upgrades the request and runs the session until the connection
// closes. The token comes from the Authorization header or the token query
// parameter; credential failures are reported in-band as AUTH_ERROR.
// GET /ws
func (h *WSHandler) Connect(c *gin.Context) {
	token := middleware.ExtractToken(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newWSClient(conn, h.cfg, h.log)
	go client.writePump()

	sess := h.gateway.Accept(client)
	defer sess.Close()

	frames := make(chan []byte)
	go h.readPump(conn, sess, frames)

	if err := sess.Authenticate(token); err != nil {
		return
	}

	for {
		select {
		case data, ok := <-frames:
			if !ok {
				return
			}
			evt, err := realtime.DecodeInbound(data)
			if err != nil {
				h.log.Debug("inbound frame dropped", zap.Error(err))
				continue
			}
			sess.Dispatch(evt)
		case <-sess.Done():
			return
		}
	}
}

// readPump reads frames in arrival order and hands them to Connect. Any read
// error, clean or not, closes the session.
func (h *WSHandler) readPump(conn *websocket.Conn, sess *realtime.Session, frames chan<- []byte) {
	defer close(frames)
	defer sess.Close()

	conn.SetReadLimit(h.cfg.MaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) || websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
		select {
		case frames <- data:
		case <-sess.Done():
			return
		}
	}
}
