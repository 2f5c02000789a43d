package session

import (
	"sync"

	"github.com/gowamp/wamp"
)

// waiter is a one-shot completion for a single outstanding request: it
// resolves with a success message or fails with an error (typically
// wrapping the router's ERROR message).
type waiter[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newWaiter[T any]() *waiter[T] {
	return &waiter[T]{done: make(chan struct{})}
}

func (w *waiter[T]) resolve(v T) {
	w.val = v
	close(w.done)
}

func (w *waiter[T]) fail(err error) {
	w.err = err
	close(w.done)
}

// table is a mutex-guarded requestId -> waiter map for one request class.
type table[T any] struct {
	mu      sync.Mutex
	waiters map[wamp.ID]*waiter[T]
}

func newTable[T any]() *table[T] {
	return &table[T]{waiters: make(map[wamp.ID]*waiter[T])}
}

func (t *table[T]) register(id wamp.ID) *waiter[T] {
	w := newWaiter[T]()
	t.mu.Lock()
	t.waiters[id] = w
	t.mu.Unlock()
	return w
}

func (t *table[T]) remove(id wamp.ID) *waiter[T] {
	t.mu.Lock()
	w := t.waiters[id]
	delete(t.waiters, id)
	t.mu.Unlock()
	return w
}

// resolve completes and removes the waiter for id, if any. It reports
// whether a waiter was found, so a caller can tell a stray response from
// a real match.
func (t *table[T]) resolve(id wamp.ID, v T) bool {
	w := t.remove(id)
	if w == nil {
		return false
	}
	w.resolve(v)
	return true
}

func (t *table[T]) fail(id wamp.ID, err error) bool {
	w := t.remove(id)
	if w == nil {
		return false
	}
	w.fail(err)
	return true
}

// failAll fails every still-pending waiter in the table with err and
// empties it. Used on session teardown.
func (t *table[T]) failAll(err error) {
	t.mu.Lock()
	waiters := t.waiters
	t.waiters = make(map[wamp.ID]*waiter[T])
	t.mu.Unlock()
	for _, w := range waiters {
		w.fail(err)
	}
}

// callTable maps a CALL's request id directly to its live callStream.
// Unlike the other five request classes, a call's "waiter" is usable
// immediately at send time (the caller gets back a stream to read from
// as soon as Call returns), so there is no separate resolve step: the
// dispatcher looks the stream up and pushes into it directly.
type callTable struct {
	mu      sync.Mutex
	streams map[wamp.ID]*callStream
}

func newCallTable() *callTable {
	return &callTable{streams: make(map[wamp.ID]*callStream)}
}

func (t *callTable) put(id wamp.ID, s *callStream) {
	t.mu.Lock()
	t.streams[id] = s
	t.mu.Unlock()
}

func (t *callTable) get(id wamp.ID) *callStream {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.streams[id]
}

func (t *callTable) remove(id wamp.ID) *callStream {
	t.mu.Lock()
	s := t.streams[id]
	delete(t.streams, id)
	t.mu.Unlock()
	return s
}

func (t *callTable) failAll(err error) {
	t.mu.Lock()
	streams := t.streams
	t.streams = make(map[wamp.ID]*callStream)
	t.mu.Unlock()
	for _, s := range streams {
		s.deliverError(err)
	}
}

// counter is an atomically-incrementing WAMP request id allocator. WAMP
// ids start at 1 and are unique within a session, not globally.
type counter struct {
	mu   sync.Mutex
	next wamp.ID
}

func (c *counter) allocate() wamp.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	return c.next
}

// registry holds the six independent id counters and pending-request
// tables the core keeps per WAMP request class. Separate counters (rather
// than one shared id space) match router expectations in the wild.
type registry struct {
	callCounter        counter
	publishCounter     counter
	subscribeCounter   counter
	unsubscribeCounter counter
	registerCounter    counter
	unregisterCounter  counter

	calls        *callTable
	publishes    *table[*wamp.Published]
	subscribes   *table[*wamp.Subscribed]
	unsubscribes *table[*wamp.Unsubscribed]
	registers    *table[*wamp.Registered]
	unregisters  *table[*wamp.Unregistered]
}

func newRegistry() *registry {
	return &registry{
		calls:        newCallTable(),
		publishes:    newTable[*wamp.Published](),
		subscribes:   newTable[*wamp.Subscribed](),
		unsubscribes: newTable[*wamp.Unsubscribed](),
		registers:    newTable[*wamp.Registered](),
		unregisters:  newTable[*wamp.Unregistered](),
	}
}

// closeAll fails every pending waiter across all six tables. Called once,
// when the session tears down.
func (r *registry) closeAll(err error) {
	r.calls.failAll(err)
	r.publishes.failAll(err)
	r.subscribes.failAll(err)
	r.unsubscribes.failAll(err)
	r.registers.failAll(err)
	r.unregisters.failAll(err)
}
