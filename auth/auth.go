// Package auth defines the pluggable authenticator contract the session
// invokes during the opening handshake's CHALLENGE/AUTHENTICATE exchange,
// plus a handful of concrete authenticators (TICKET, WAMP-CRA, and an
// OAuth2-sourced ticket). The cryptographic or network work an
// authenticator performs is entirely its own concern; the session only
// ever awaits Challenge and forwards its result.
package auth

import (
	"context"

	"github.com/gowamp/wamp"
)

// Authenticator produces an AUTHENTICATE reply for a single named WAMP
// authentication method. A session is offered an ordered list of these at
// connect time; see Select.
type Authenticator interface {
	// Name is the WAMP authmethod this authenticator implements, e.g.
	// "ticket", "wampcra", "cryptosign".
	Name() string

	// Challenge computes the AUTHENTICATE message for a CHALLENGE whose
	// Extra payload is given. It may perform arbitrary asynchronous work
	// (key derivation, a network round trip); ctx bounds that work.
	Challenge(ctx context.Context, extra wamp.Dict) (*wamp.Authenticate, error)
}

// Select returns the first authenticator in methods whose Name matches
// authmethod, or nil if none match. Per the core's tie-break rule, the
// authmethod named by the server's CHALLENGE always wins over whatever
// order the client offered its authmethods in HELLO.
func Select(methods []Authenticator, authmethod string) Authenticator {
	for _, m := range methods {
		if m.Name() == authmethod {
			return m
		}
	}
	return nil
}

// Names returns the authmethod names to advertise in HELLO's
// "authmethods" detail, in the order methods were given.
func Names(methods []Authenticator) []string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name()
	}
	return names
}
