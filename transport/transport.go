// Package transport defines the duplex, frame-oriented byte transport the
// session layer runs over, and the concrete implementations the core ships
// with (an in-process pipe for tests and same-process routers, and a
// WebSocket transport for talking to a real router).
//
// The session never sees raw bytes: a Connection already speaks in typed
// [wamp.Message] values. How those values become bytes on the wire
// (JSON today, via wamp.Encode and wamp.Decode) is the concern of each
// Connection implementation, not of the session state machine.
package transport

import (
	"context"
	"io"

	"github.com/gowamp/wamp"
)

// Connection is a single, already-open bidirectional WAMP message stream.
// A session owns exactly one Connection for its lifetime.
//
// Read and Write may be called concurrently with each other, but Write is
// called by multiple goroutines in the session (the dispatcher's
// invocation-response hooks, the interaction surface, the authenticator's
// AUTHENTICATE reply) and so implementations must serialize their own
// writes; callers do not hold an external lock.
type Connection interface {
	// Read blocks for the next inbound message. It returns io.EOF on a
	// clean close, or another error if the connection failed; either
	// return ends the session's inbound sequence.
	Read(ctx context.Context) (wamp.Message, error)

	// Write sends a single message. Implementations must preserve the
	// order in which Write is called.
	Write(ctx context.Context, msg wamp.Message) error

	// Close is idempotent and unblocks any in-flight Read.
	Close() error
}

// Dialer opens a Connection to a WAMP router. Implementations wrap a
// specific byte transport (WebSocket, raw TCP, an in-process pipe) plus a
// wire serialization.
type Dialer interface {
	Dial(ctx context.Context) (Connection, error)
}

// ErrClosed is returned by Read and Write after Close has been called.
var ErrClosed = io.ErrClosedPipe
