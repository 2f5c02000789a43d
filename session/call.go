package session

import (
	"context"
	"fmt"

	"github.com/gowamp/wamp"
)

// CancelMode selects how the router should treat an in-flight CANCEL.
// See WAMP's advanced RPC cancellation profile.
type CancelMode string

const (
	CancelKill       CancelMode = "kill"
	CancelKillNoWait CancelMode = "killnowait"
	CancelSkip       CancelMode = "skip"
)

// callStream is the dispatcher-side sink for one outstanding CALL: every
// matching RESULT is pushed, and either a non-progress RESULT or a
// matching ERROR terminates it.
type callStream struct {
	results *queue[*wamp.Result]
	err     chan error // buffered 1; receives at most once, on ERROR
}

func newCallStream() *callStream {
	return &callStream{
		results: newQueue[*wamp.Result](),
		err:     make(chan error, 1),
	}
}

func (c *callStream) deliverResult(r *wamp.Result) {
	c.results.push(r)
	if !r.Progress() {
		c.results.close()
	}
}

func (c *callStream) deliverError(err error) {
	select {
	case c.err <- err:
	default:
	}
	c.results.close()
}

// CallStream is the caller-facing handle for an in-flight or completed
// CALL. Recv yields every RESULT in receive order; the final call
// returns ok=false, after which Err reports whether the stream ended in
// error rather than a clean terminal RESULT.
type CallStream struct {
	sess      *Session
	requestID wamp.ID
	stream    *callStream
	err       error
}

// Recv blocks for the next progressive or terminal RESULT. It returns
// ok=false once the stream has ended, whether cleanly or with an error;
// call Err afterward to distinguish the two.
func (c *CallStream) Recv(ctx context.Context) (*wamp.Result, bool) {
	r, ok := c.stream.results.next(ctx)
	if ok {
		return r, true
	}
	select {
	case err := <-c.stream.err:
		c.err = err
	default:
	}
	return nil, false
}

// Err returns the error that ended the stream, or nil if it ended with a
// clean terminal RESULT (or hasn't ended yet).
func (c *CallStream) Err() error { return c.err }

// Cancel requests cancellation of the call with the given mode, per
// WAMP's advanced RPC cancellation profile. The stream itself is not
// closed by Cancel: it remains open until the router delivers a terminal
// RESULT or ERROR, per §5.
func (c *CallStream) Cancel(ctx context.Context, mode CancelMode) error {
	opts := wamp.Dict{}
	if mode != "" {
		opts["mode"] = string(mode)
	}
	return c.sess.send(ctx, &wamp.Cancel{Request: c.requestID, Options: opts})
}

// CallOptions configures an outgoing CALL.
type CallOptions struct {
	Options wamp.Dict
	Args    []any
	ArgsKw  wamp.Dict
}

// Call invokes a remote procedure and returns a stream of its results.
// Progressive RESULTs (those with Details["progress"] == true) are
// delivered as they arrive; the stream ends at the first non-progress
// RESULT, or fails on a matching ERROR.
func (s *Session) Call(ctx context.Context, procedure wamp.URI, opts *CallOptions) (*CallStream, error) {
	if err := s.requireEstablished(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &CallOptions{}
	}
	options := opts.Options
	if options == nil {
		options = wamp.Dict{}
	}

	id := s.registry.callCounter.allocate()
	stream := newCallStream()
	s.registry.calls.put(id, stream)

	msg := &wamp.Call{
		Request:   id,
		Options:   options,
		Procedure: procedure,
		Args:      opts.Args,
		ArgsKw:    opts.ArgsKw,
	}
	if err := s.send(ctx, msg); err != nil {
		s.registry.calls.remove(id)
		return nil, fmt.Errorf("session: sending CALL: %w", err)
	}
	return &CallStream{sess: s, requestID: id, stream: stream}, nil
}
