package wamp

import "fmt"

// ProtocolError indicates a message was received that violates the WAMP
// state machine for the session's current phase (e.g. a RESULT before
// WELCOME, or a malformed message).
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("wamp: protocol violation: %s", e.Reason)
}

// AbortError reports that the router sent ABORT, either during the
// handshake or once established.
type AbortError struct {
	Reason  URI
	Details Dict
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("wamp: session aborted by peer: %s %v", e.Reason, e.Details)
}

// GoodbyeError reports that the peer closed the session cleanly with
// GOODBYE.
type GoodbyeError struct {
	Reason  URI
	Details Dict
}

func (e *GoodbyeError) Error() string {
	return fmt.Sprintf("wamp: session closed: %s", e.Reason)
}

// ErrSessionClosed is returned by any pending operation whose session
// closes (by transport disconnect or GOODBYE/ABORT) before the operation
// completes.
var ErrSessionClosed = fmt.Errorf("wamp: session closed")
