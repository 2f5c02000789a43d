package transport

import (
	"context"
	"io"
	"sync"

	"github.com/gowamp/wamp"
)

// Pipe is an in-process, in-memory Connection, useful for testing a
// session against a scripted peer and for talking to a router embedded in
// the same process. NewPipe returns a connected pair; each end implements
// Connection.
type Pipe struct {
	out chan wamp.Message
	in  chan wamp.Message

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{} // closed when Close is called on this end
	peerDone  chan struct{} // closed when Close is called on the peer end
}

// NewPipe returns two ends of a connected in-memory duplex: messages
// written to a are read from b, and vice versa.
func NewPipe() (a, b *Pipe) {
	ab := make(chan wamp.Message, 16)
	ba := make(chan wamp.Message, 16)
	doneA := make(chan struct{})
	doneB := make(chan struct{})
	a = &Pipe{out: ab, in: ba, done: doneA, peerDone: doneB}
	b = &Pipe{out: ba, in: ab, done: doneB, peerDone: doneA}
	return a, b
}

func (p *Pipe) Read(ctx context.Context) (wamp.Message, error) {
	// Give a buffered message priority over a close signal that raced in
	// after it, so Close never causes a dropped in-flight message.
	select {
	case msg := <-p.in:
		return msg, nil
	default:
	}
	select {
	case msg := <-p.in:
		return msg, nil
	case <-p.done:
		return nil, ErrClosed
	case <-p.peerDone:
		select {
		case msg := <-p.in:
			return msg, nil
		default:
			return nil, io.EOF
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pipe) Write(ctx context.Context, msg wamp.Message) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}
	select {
	case p.out <- msg:
		return nil
	case <-p.done:
		return ErrClosed
	case <-p.peerDone:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes this end. The peer's next Read (once any in-flight
// messages are drained) returns io.EOF.
func (p *Pipe) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.done)
	})
	return nil
}
