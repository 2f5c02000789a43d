// Package session implements the WAMP session layer: the opening
// handshake (HELLO, optional CHALLENGE/AUTHENTICATE, WELCOME/ABORT), the
// per-session request registry, and the dispatcher that, once
// established, fans inbound messages out to pending-request waiters,
// subscription/registration sinks, or session-control handling.
//
// A Session is the sole owner of its transport.Connection; callers reach
// it only through Call, Publish, Subscribe, Unsubscribe, Register, and
// Unregister.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gowamp/wamp"
	"github.com/gowamp/wamp/transport"
)

// State is a phase of the session lifecycle.
type State int

const (
	StateConnecting State = iota
	StateChallenging
	StateEstablished
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateChallenging:
		return "challenging"
	case StateEstablished:
		return "established"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is one live WAMP session on top of a single transport
// connection. Identity fields (ID, AuthID, AuthRole, AuthMethod,
// AuthProvider) are unset until WELCOME and immutable thereafter.
type Session struct {
	conn   transport.Connection
	logger *slog.Logger

	registry *registry

	mu    sync.Mutex
	state State

	id           wamp.ID
	realm        wamp.URI
	authID       string
	authRole     string
	authMethod   string
	authProvider string

	subs   map[wamp.ID]*subscriptionRecord
	regs   map[wamp.ID]*registrationRecord
	subsMu sync.Mutex
	regsMu sync.Mutex

	dispatchCtx    context.Context
	dispatchCancel context.CancelFunc

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

func newSession(conn transport.Connection, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		conn:           conn,
		logger:         logger,
		dispatchCtx:    ctx,
		dispatchCancel: cancel,
		registry:       newRegistry(),
		subs:           make(map[wamp.ID]*subscriptionRecord),
		regs:           make(map[wamp.ID]*registrationRecord),
		closed:         make(chan struct{}),
	}
}

// ID returns the server-assigned session id. It is zero before WELCOME.
func (s *Session) ID() wamp.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Realm returns the realm this session joined.
func (s *Session) Realm() wamp.URI {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realm
}

// AuthID, AuthRole, AuthMethod, and AuthProvider return the server's
// post-WELCOME authentication details, or the zero value before WELCOME.
func (s *Session) AuthID() string       { s.mu.Lock(); defer s.mu.Unlock(); return s.authID }
func (s *Session) AuthRole() string     { s.mu.Lock(); defer s.mu.Unlock(); return s.authRole }
func (s *Session) AuthMethod() string   { s.mu.Lock(); defer s.mu.Unlock(); return s.authMethod }
func (s *Session) AuthProvider() string { s.mu.Lock(); defer s.mu.Unlock(); return s.authProvider }

// State returns the session's current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConnected reports whether the session is Established: the transport
// is open and the post-WELCOME dispatcher is still running.
func (s *Session) IsConnected() bool {
	return s.State() == StateEstablished
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) requireEstablished() error {
	if s.State() != StateEstablished {
		return fmt.Errorf("session: operation requires an established session, current state is %s", s.State())
	}
	return nil
}

// send writes msg to the transport. transport.Connection implementations
// serialize their own concurrent writes, so no additional lock is needed
// here; this just centralizes the one call site.
func (s *Session) send(ctx context.Context, msg wamp.Message) error {
	return s.conn.Write(ctx, msg)
}

// Close tears the session down: it closes the transport, fails every
// pending request waiter with ErrSessionClosed, and closes every
// subscription and invocation sink. Close is idempotent.
func (s *Session) Close() error {
	return s.closeWith(wamp.ErrSessionClosed)
}

func (s *Session) closeWith(cause error) error {
	var connErr error
	s.closeOnce.Do(func() {
		s.setState(StateClosed)
		s.closeErr = cause
		s.logger.Debug("wamp: session closing", "cause", cause)
		s.dispatchCancel()
		connErr = s.conn.Close()
		waiterErr := cause
		if !errors.Is(cause, wamp.ErrSessionClosed) {
			waiterErr = fmt.Errorf("%w: %w", wamp.ErrSessionClosed, cause)
		}
		s.registry.closeAll(waiterErr)

		s.subsMu.Lock()
		subs := s.subs
		s.subs = make(map[wamp.ID]*subscriptionRecord)
		s.subsMu.Unlock()
		for _, sub := range subs {
			sub.events.close()
		}

		s.regsMu.Lock()
		regs := s.regs
		s.regs = make(map[wamp.ID]*registrationRecord)
		s.regsMu.Unlock()
		for _, reg := range regs {
			reg.invocations.close()
		}

		close(s.closed)
	})
	return connErr
}

// Done returns a channel closed once the session has torn down.
func (s *Session) Done() <-chan struct{} { return s.closed }
