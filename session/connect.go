package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gowamp/wamp"
	"github.com/gowamp/wamp/auth"
	"github.com/gowamp/wamp/transport"
)

// ConnectOptions configures the opening handshake.
type ConnectOptions struct {
	// Realm is the realm to join. Must satisfy wamp.IsValidURI.
	Realm wamp.URI

	// AuthID, if set, is offered in HELLO's "authid" detail.
	AuthID string

	// Authenticators are offered, in order, as HELLO's "authmethods"
	// detail. When the router sends CHALLENGE, the one named by the
	// challenge wins regardless of offer order (see Select).
	Authenticators []auth.Authenticator

	// Roles overrides the client roles advertised in HELLO's "roles"
	// detail. If nil, all four interaction roles are advertised.
	Roles wamp.Dict

	// Logger receives diagnostic output (dropped messages, session
	// teardown). If nil, slog.Default() is used.
	Logger *slog.Logger
}

func defaultRoles() wamp.Dict {
	return wamp.Dict{
		"caller":     wamp.Dict{},
		"callee":     wamp.Dict{},
		"publisher":  wamp.Dict{},
		"subscriber": wamp.Dict{},
	}
}

// Connect dials a transport and performs the WAMP opening handshake:
// HELLO, an optional CHALLENGE/AUTHENTICATE loop, and finally WELCOME or
// ABORT. On success the returned Session is Established and its
// dispatcher is already running.
func Connect(ctx context.Context, dialer transport.Dialer, opts *ConnectOptions) (*Session, error) {
	if opts == nil {
		opts = &ConnectOptions{}
	}
	if !wamp.IsValidURI(opts.Realm, false) {
		return nil, fmt.Errorf("session: invalid realm %q", opts.Realm)
	}

	conn, err := dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: dial: %w", err)
	}

	sess := newSession(conn, opts.Logger)
	sess.realm = opts.Realm
	sess.setState(StateConnecting)

	roles := opts.Roles
	if roles == nil {
		roles = defaultRoles()
	}
	details := wamp.Dict{"roles": roles}
	if opts.AuthID != "" {
		details["authid"] = opts.AuthID
	}
	if len(opts.Authenticators) > 0 {
		details["authmethods"] = auth.Names(opts.Authenticators)
	}

	if err := conn.Write(ctx, &wamp.Hello{Realm: opts.Realm, Details: details}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("session: sending HELLO: %w", err)
	}

	for {
		msg, err := conn.Read(ctx)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("session: handshake read: %w", err)
		}

		switch m := msg.(type) {
		case *wamp.Challenge:
			sess.setState(StateChallenging)
			authenticator := auth.Select(opts.Authenticators, m.AuthMethod)
			if authenticator == nil {
				_ = conn.Write(ctx, &wamp.Goodbye{Details: wamp.Dict{}, Reason: wamp.CloseGoodbyeAndOut})
				conn.Close()
				return nil, fmt.Errorf("session: no authenticator offered for challenge method %q", m.AuthMethod)
			}
			reply, err := authenticator.Challenge(ctx, m.Extra)
			if err != nil {
				_ = conn.Write(ctx, &wamp.Goodbye{Details: wamp.Dict{}, Reason: wamp.CloseGoodbyeAndOut})
				conn.Close()
				return nil, fmt.Errorf("session: authenticator %q failed: %w", m.AuthMethod, err)
			}
			if err := conn.Write(ctx, reply); err != nil {
				conn.Close()
				return nil, fmt.Errorf("session: sending AUTHENTICATE: %w", err)
			}

		case *wamp.Welcome:
			sess.id = m.Session
			if v, ok := m.Details["authid"].(string); ok {
				sess.authID = v
			}
			if v, ok := m.Details["authrole"].(string); ok {
				sess.authRole = v
			}
			if v, ok := m.Details["authmethod"].(string); ok {
				sess.authMethod = v
			}
			if v, ok := m.Details["authprovider"].(string); ok {
				sess.authProvider = v
			}
			sess.setState(StateEstablished)
			go sess.runDispatcher()
			return sess, nil

		case *wamp.Abort:
			conn.Close()
			return nil, &wamp.AbortError{Reason: m.Reason, Details: m.Details}

		default:
			conn.Close()
			return nil, &wamp.ProtocolError{Reason: fmt.Sprintf("unexpected %s during handshake", msg.MessageType())}
		}
	}
}
