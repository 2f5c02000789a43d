package session

import (
	"context"

	"github.com/gowamp/wamp"
)

// subscriptionRecord is the session's internal bookkeeping for one
// SUBSCRIBED id: the topic and the queue EVENTs are pushed onto.
type subscriptionRecord struct {
	id     wamp.ID
	topic  wamp.URI
	events *queue[*wamp.Event]
}

// registrationRecord is the session's internal bookkeeping for one
// REGISTERED id: the procedure and the queue INVOCATIONs are pushed onto.
type registrationRecord struct {
	id          wamp.ID
	procedure   wamp.URI
	invocations *queue[*Invocation]
}

// Subscription is the user-facing handle to a live SUBSCRIBE. It holds
// a pointer to the owning session and to the subscription's record (id,
// topic, and event queue), which the session's internal map also holds
// until Unsubscribe or session close; when the session closes, Recv stops
// yielding events.
type Subscription struct {
	sess   *Session
	record *subscriptionRecord
}

// ID is the server-assigned subscription id.
func (sub *Subscription) ID() wamp.ID { return sub.record.id }

// Topic is the topic URI this subscription was created for.
func (sub *Subscription) Topic() wamp.URI { return sub.record.topic }

// Recv blocks for the next EVENT on this subscription. It returns
// ok=false once the subscription has been removed (by Unsubscribe or
// session close) and all already-queued events have been drained.
func (sub *Subscription) Recv(ctx context.Context) (*wamp.Event, bool) {
	return sub.record.events.next(ctx)
}

// Registration is the user-facing handle to a live REGISTER. Symmetric
// to Subscription, but yields Invocation values, each carrying a
// response hook.
type Registration struct {
	sess   *Session
	record *registrationRecord
}

// ID is the server-assigned registration id.
func (reg *Registration) ID() wamp.ID { return reg.record.id }

// Procedure is the procedure URI this registration was created for.
func (reg *Registration) Procedure() wamp.URI { return reg.record.procedure }

// Recv blocks for the next INVOCATION on this registration. It returns
// ok=false once the registration has been removed and all already-queued
// invocations have been drained.
func (reg *Registration) Recv(ctx context.Context) (*Invocation, bool) {
	return reg.record.invocations.next(ctx)
}

// Invocation is one inbound INVOCATION delivered to a Registration. The
// handler calls Yield or Fail exactly once to send the corresponding
// response back to the router; the dispatcher wires this hook at
// delivery time, so Invocation itself has no knowledge of the transport.
type Invocation struct {
	sess         *Session
	requestID    wamp.ID
	registration wamp.ID
	Details      wamp.Dict
	Args         []any
	ArgsKw       wamp.Dict
}

// Yield sends a successful YIELD response for this invocation.
func (inv *Invocation) Yield(ctx context.Context, args []any, argsKw wamp.Dict, options wamp.Dict) error {
	if options == nil {
		options = wamp.Dict{}
	}
	return inv.sess.send(ctx, &wamp.Yield{Request: inv.requestID, Options: options, Args: args, ArgsKw: argsKw})
}

// Fail sends an ERROR response for this invocation.
func (inv *Invocation) Fail(ctx context.Context, reason wamp.URI, args []any, argsKw wamp.Dict) error {
	return inv.sess.send(ctx, &wamp.Error{
		RequestType: wamp.INVOCATION,
		Request:     inv.requestID,
		Details:     wamp.Dict{},
		Reason:      reason,
		Args:        args,
		ArgsKw:      argsKw,
	})
}
