package session

import (
	"context"
	"fmt"

	"github.com/gowamp/wamp"
)

// PublishOptions configures an outgoing PUBLISH.
type PublishOptions struct {
	// Acknowledge requests a PUBLISHED response. When false, Publish
	// returns immediately after the message is sent and no waiter is
	// registered for it: WAMP treats unacknowledged publish as
	// fire-and-forget, and the core makes that explicit rather than
	// always waiting (see the acknowledge note in the design notes).
	Acknowledge bool
	Options     wamp.Dict
	Args        []any
	ArgsKw      wamp.Dict
}

// Publish publishes an event to topic. If opts.Acknowledge is set, it
// blocks for the router's PUBLISHED (or a matching ERROR); otherwise it
// returns as soon as the message is written.
func (s *Session) Publish(ctx context.Context, topic wamp.URI, opts *PublishOptions) (wamp.ID, error) {
	if err := s.requireEstablished(); err != nil {
		return 0, err
	}
	if opts == nil {
		opts = &PublishOptions{}
	}
	options := cloneDict(opts.Options)
	if opts.Acknowledge {
		options["acknowledge"] = true
	}

	id := s.registry.publishCounter.allocate()
	msg := &wamp.Publish{Request: id, Options: options, Topic: topic, Args: opts.Args, ArgsKw: opts.ArgsKw}

	if !opts.Acknowledge {
		if err := s.send(ctx, msg); err != nil {
			return 0, fmt.Errorf("session: sending PUBLISH: %w", err)
		}
		return id, nil
	}

	w := s.registry.publishes.register(id)
	if err := s.send(ctx, msg); err != nil {
		s.registry.publishes.remove(id)
		return 0, fmt.Errorf("session: sending PUBLISH: %w", err)
	}
	select {
	case <-w.done:
		if w.err != nil {
			return 0, w.err
		}
		return w.val.Publication, nil
	case <-ctx.Done():
		s.registry.publishes.remove(id)
		return 0, ctx.Err()
	case <-s.closed:
		return 0, wamp.ErrSessionClosed
	}
}

// SubscribeOptions configures an outgoing SUBSCRIBE.
type SubscribeOptions struct {
	Options wamp.Dict
}

// Subscribe subscribes to topic and returns a handle whose Recv yields
// every matching EVENT for as long as the subscription is alive.
func (s *Session) Subscribe(ctx context.Context, topic wamp.URI, opts *SubscribeOptions) (*Subscription, error) {
	if err := s.requireEstablished(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &SubscribeOptions{}
	}
	options := cloneDict(opts.Options)

	id := s.registry.subscribeCounter.allocate()
	w := s.registry.subscribes.register(id)
	msg := &wamp.Subscribe{Request: id, Options: options, Topic: topic}
	if err := s.send(ctx, msg); err != nil {
		s.registry.subscribes.remove(id)
		return nil, fmt.Errorf("session: sending SUBSCRIBE: %w", err)
	}

	select {
	case <-w.done:
		if w.err != nil {
			return nil, w.err
		}
		record := &subscriptionRecord{id: w.val.Subscription, topic: topic, events: newQueue[*wamp.Event]()}
		s.subsMu.Lock()
		s.subs[record.id] = record
		s.subsMu.Unlock()
		return &Subscription{sess: s, record: record}, nil
	case <-ctx.Done():
		s.registry.subscribes.remove(id)
		return nil, ctx.Err()
	case <-s.closed:
		return nil, wamp.ErrSessionClosed
	}
}

// Unsubscribe ends a subscription. Once it returns successfully,
// late-arriving EVENTs for that subscription are dropped silently by the
// dispatcher.
func (s *Session) Unsubscribe(ctx context.Context, sub *Subscription) error {
	if err := s.requireEstablished(); err != nil {
		return err
	}
	id := s.registry.unsubscribeCounter.allocate()
	w := s.registry.unsubscribes.register(id)
	msg := &wamp.Unsubscribe{Request: id, Subscription: sub.record.id}
	if err := s.send(ctx, msg); err != nil {
		s.registry.unsubscribes.remove(id)
		return fmt.Errorf("session: sending UNSUBSCRIBE: %w", err)
	}

	select {
	case <-w.done:
		if w.err != nil {
			return w.err
		}
		s.subsMu.Lock()
		delete(s.subs, sub.record.id)
		s.subsMu.Unlock()
		sub.record.events.close()
		return nil
	case <-ctx.Done():
		s.registry.unsubscribes.remove(id)
		return ctx.Err()
	case <-s.closed:
		return wamp.ErrSessionClosed
	}
}

// RegisterOptions configures an outgoing REGISTER.
type RegisterOptions struct {
	Options wamp.Dict
}

// Register registers procedure as callee and returns a handle whose Recv
// yields every matching INVOCATION for as long as the registration is
// alive.
func (s *Session) Register(ctx context.Context, procedure wamp.URI, opts *RegisterOptions) (*Registration, error) {
	if err := s.requireEstablished(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &RegisterOptions{}
	}
	options := cloneDict(opts.Options)

	id := s.registry.registerCounter.allocate()
	w := s.registry.registers.register(id)
	msg := &wamp.Register{Request: id, Options: options, Procedure: procedure}
	if err := s.send(ctx, msg); err != nil {
		s.registry.registers.remove(id)
		return nil, fmt.Errorf("session: sending REGISTER: %w", err)
	}

	select {
	case <-w.done:
		if w.err != nil {
			return nil, w.err
		}
		record := &registrationRecord{id: w.val.Registration, procedure: procedure, invocations: newQueue[*Invocation]()}
		s.regsMu.Lock()
		s.regs[record.id] = record
		s.regsMu.Unlock()
		return &Registration{sess: s, record: record}, nil
	case <-ctx.Done():
		s.registry.registers.remove(id)
		return nil, ctx.Err()
	case <-s.closed:
		return nil, wamp.ErrSessionClosed
	}
}

// Unregister ends a registration. Once it returns successfully,
// late-arriving INVOCATIONs for that registration are answered by the
// dispatcher with ERROR(wamp.error.no_such_registration).
func (s *Session) Unregister(ctx context.Context, reg *Registration) error {
	if err := s.requireEstablished(); err != nil {
		return err
	}
	id := s.registry.unregisterCounter.allocate()
	w := s.registry.unregisters.register(id)
	msg := &wamp.Unregister{Request: id, Registration: reg.record.id}
	if err := s.send(ctx, msg); err != nil {
		s.registry.unregisters.remove(id)
		return fmt.Errorf("session: sending UNREGISTER: %w", err)
	}

	select {
	case <-w.done:
		if w.err != nil {
			return w.err
		}
		s.regsMu.Lock()
		delete(s.regs, reg.record.id)
		s.regsMu.Unlock()
		reg.record.invocations.close()
		return nil
	case <-ctx.Done():
		s.registry.unregisters.remove(id)
		return ctx.Err()
	case <-s.closed:
		return wamp.ErrSessionClosed
	}
}

func cloneDict(d wamp.Dict) wamp.Dict {
	out := make(wamp.Dict, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	return out
}
