package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chat-app-api/internal/auth"
	"chat-app-api/internal/models"

	"go.uber.org/zap"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrSessionClosed        = errors.New("session closed")
	ErrAlreadyAuthenticated = errors.New("session already authenticated")
)

const defaultHandshakeTimeout = 10 * time.Second

// Gateway creates and tracks per-connection sessions.
type Gateway struct {
	verifier         Verifier
	registry         *Registry
	relay            *Relay
	log              *zap.Logger
	handshakeTimeout time.Duration

	mu       sync.Mutex
	sessions map[*Session]struct{}
	closed   bool
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHandshakeTimeout bounds how long token verification may take.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.handshakeTimeout = d
		}
	}
}

// NewGateway wires a gateway to its collaborators.
func NewGateway(verifier Verifier, registry *Registry, relay *Relay, log *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		verifier:         verifier,
		registry:         registry,
		relay:            relay,
		log:              log,
		handshakeTimeout: defaultHandshakeTimeout,
		sessions:         make(map[*Session]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Accept starts an unauthenticated session for a freshly opened connection.
// After Shutdown the returned session is already closed.
func (g *Gateway) Accept(client Client) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		gw:     g,
		client: client,
		ctx:    ctx,
		cancel: cancel,
		state:  StateUnauthenticated,
	}

	g.mu.Lock()
	closed := g.closed
	if !closed {
		g.sessions[s] = struct{}{}
	}
	g.mu.Unlock()

	if closed {
		s.Close()
	}
	return s
}

// Len returns the number of open sessions, authenticated or not.
func (g *Gateway) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// Shutdown closes every open session; each runs its normal cleanup.
// Sessions accepted afterwards are closed immediately.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	g.closed = true
	sessions := make([]*Session, 0, len(g.sessions))
	for s := range g.sessions {
		sessions = append(sessions, s)
	}
	g.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	g.log.Info("gateway shut down", zap.Int("sessions", len(sessions)))
}

func (g *Gateway) forget(s *Session) {
	g.mu.Lock()
	delete(g.sessions, s)
	g.mu.Unlock()
}

// Session is the lifecycle of one connection:
// Unauthenticated -> Authenticating -> Active -> Closed.
// Close may happen from any state and runs cleanup exactly once.
type Session struct {
	gw     *Gateway
	client Client
	ctx    context.Context
	cancel context.CancelFunc

	// mu serializes state transitions with registry calls made on behalf of
	// this session, so nothing touches the registry for it after cleanup.
	mu       sync.Mutex
	state    State
	identity models.Identity

	closeOnce sync.Once
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the verified identity once the session is active.
func (s *Session) Identity() (models.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.state == StateActive
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Authenticate verifies token and, on success, registers the session's
// identity. On failure the client receives an AUTH_ERROR event and the
// session is closed without touching the registry. Closing the session while
// verification is in flight cancels it.
func (s *Session) Authenticate(token string) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrSessionClosed
	case StateUnauthenticated:
		s.state = StateAuthenticating
	default:
		s.mu.Unlock()
		return ErrAlreadyAuthenticated
	}
	s.mu.Unlock()

	if strings.TrimSpace(token) == "" {
		s.reject(auth.ErrMissingToken)
		return auth.ErrMissingToken
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.gw.handshakeTimeout)
	defer cancel()

	identity, err := s.gw.verifier.VerifyToken(ctx, token)
	if err != nil {
		if s.ctx.Err() != nil {
			return ErrSessionClosed
		}
		if !errors.Is(err, auth.ErrAuth) {
			err = fmt.Errorf("%w: %v", auth.ErrAuth, err)
		}
		s.reject(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticating {
		return ErrSessionClosed
	}
	s.identity = identity
	s.state = StateActive
	s.gw.registry.Register(identity, s.client)

	s.gw.log.Debug("session active",
		zap.String("user_id", identity.ID),
		zap.String("name", identity.DisplayName),
	)
	return nil
}

// Dispatch handles one inbound event. Events arriving before the session is
// active, after it closed or after another connection superseded it are
// dropped.
func (s *Session) Dispatch(evt InboundEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		s.gw.log.Debug("event dropped", zap.Stringer("state", s.state))
		return
	}

	// A superseded session keeps running until its transport closes, but it
	// no longer speaks for the identity.
	if !s.gw.registry.Owns(s.identity.ID, s.client) {
		s.gw.log.Debug("event from superseded session dropped", zap.String("user_id", s.identity.ID))
		return
	}

	switch e := evt.(type) {
	case SendMessage:
		s.gw.relay.Relay(s.identity, e.Text)
	case Typing:
		s.markTypingLocked(true)
	case StopTyping:
		s.markTypingLocked(false)
	default:
		s.gw.log.Warn("unhandled event", zap.String("event", fmt.Sprintf("%T", evt)))
	}
}

func (s *Session) markTypingLocked(typing bool) {
	if !s.gw.registry.MarkTypingFor(s.identity.ID, s.client, typing) {
		s.gw.log.Debug("typing update for released connection", zap.String("user_id", s.identity.ID))
	}
}

// Close ends the session. If it was active its registry entry is released,
// which publishes the updated presence. Safe to call more than once and from
// any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()

		s.mu.Lock()
		wasActive := s.state == StateActive
		s.state = StateClosed
		if wasActive && !s.gw.registry.Release(s.identity.ID, s.client) {
			s.gw.log.Debug("session was superseded", zap.String("user_id", s.identity.ID))
		}
		s.mu.Unlock()

		s.gw.forget(s)
		s.client.Close()

		if wasActive {
			s.gw.log.Debug("session closed", zap.String("user_id", s.identity.ID))
		}
	})
}

func (s *Session) reject(err error) {
	s.gw.log.Info("authentication failed", zap.Error(err))
	if frame, encErr := Encode(ErrorEvent{Code: ErrorCodeAuth, Message: err.Error()}); encErr == nil {
		s.client.Send(frame)
	}
	s.Close()
}
