package session

import (
	"context"

	"github.com/gowamp/wamp"
	"github.com/gowamp/wamp/internal/wampdebug"
)

// dumpMessages reports whether WAMPGODEBUG=dumpmessages=1 is set, logging
// every dispatched message at Debug level. Off by default: even at Debug
// level this is too chatty for routine use.
func dumpMessages() bool {
	return wampdebug.Value("dumpmessages") == "1"
}

// runDispatcher is the single logical consumer of the transport's
// inbound sequence, active for the lifetime of Established. It classifies
// every message as a response to a pending request, an unsolicited
// server push (EVENT/INVOCATION), or session control (GOODBYE/ABORT),
// and never blocks on one destination sink to the exclusion of another:
// every sink is an unbounded queue, so a slow consumer only delays
// itself.
func (s *Session) runDispatcher() {
	for {
		msg, err := s.conn.Read(s.dispatchCtx)
		if err != nil {
			s.closeWith(err)
			return
		}
		s.dispatch(msg)
	}
}

func (s *Session) dispatch(msg wamp.Message) {
	if dumpMessages() {
		s.logger.Debug("wamp: dispatching inbound message", "type", msg.MessageType().String())
	}
	switch m := msg.(type) {
	case *wamp.Result:
		s.dispatchResult(m)
	case *wamp.Published:
		s.registry.publishes.resolve(m.Request, m)
	case *wamp.Subscribed:
		s.registry.subscribes.resolve(m.Request, m)
	case *wamp.Unsubscribed:
		s.registry.unsubscribes.resolve(m.Request, m)
	case *wamp.Registered:
		s.registry.registers.resolve(m.Request, m)
	case *wamp.Unregistered:
		s.registry.unregisters.resolve(m.Request, m)
	case *wamp.Error:
		s.dispatchError(m)
	case *wamp.Event:
		s.dispatchEvent(m)
	case *wamp.Invocation:
		s.dispatchInvocation(m)
	case *wamp.Goodbye:
		s.handleGoodbye(m)
	case *wamp.Abort:
		s.closeWith(&wamp.AbortError{Reason: m.Reason, Details: m.Details})
	default:
		// Anything else (HELLO, WELCOME, CHALLENGE, AUTHENTICATE) is
		// only legal during the handshake; seeing it here is a protocol
		// violation.
		s.abortProtocolViolation("unexpected message after WELCOME")
	}
}

func (s *Session) dispatchResult(m *wamp.Result) {
	stream := s.registry.calls.get(m.Request)
	if stream == nil {
		return // stray or already-terminated call
	}
	if !m.Progress() {
		s.registry.calls.remove(m.Request)
	}
	stream.deliverResult(m)
}

func (s *Session) dispatchError(m *wamp.Error) {
	switch m.RequestType {
	case wamp.CALL:
		if stream := s.registry.calls.remove(m.Request); stream != nil {
			stream.deliverError(m)
		}
	case wamp.PUBLISH:
		s.registry.publishes.fail(m.Request, m)
	case wamp.SUBSCRIBE:
		s.registry.subscribes.fail(m.Request, m)
	case wamp.UNSUBSCRIBE:
		s.registry.unsubscribes.fail(m.Request, m)
	case wamp.REGISTER:
		s.registry.registers.fail(m.Request, m)
	case wamp.UNREGISTER:
		s.registry.unregisters.fail(m.Request, m)
	}
	// An ERROR whose requestTypeId/requestId matches nothing pending is
	// dropped: it cannot correspond to any waiter we still track.
}

func (s *Session) dispatchEvent(m *wamp.Event) {
	s.subsMu.Lock()
	record := s.subs[m.Subscription]
	s.subsMu.Unlock()
	if record == nil {
		// Late event for a subscription already unsubscribed: dropped
		// silently, per the core's invariant.
		s.logger.Debug("wamp: dropping EVENT for unknown subscription", "subscription", m.Subscription)
		return
	}
	record.events.push(m)
}

func (s *Session) dispatchInvocation(m *wamp.Invocation) {
	s.regsMu.Lock()
	record := s.regs[m.Registration]
	s.regsMu.Unlock()
	if record == nil {
		_ = s.send(context.Background(), &wamp.Error{
			RequestType: wamp.INVOCATION,
			Request:     m.Request,
			Details:     wamp.Dict{},
			Reason:      wamp.ErrNoSuchRegistration,
		})
		return
	}
	record.invocations.push(&Invocation{
		sess:         s,
		requestID:    m.Request,
		registration: m.Registration,
		Details:      m.Details,
		Args:         m.Args,
		ArgsKw:       m.ArgsKw,
	})
}

func (s *Session) handleGoodbye(m *wamp.Goodbye) {
	_ = s.send(context.Background(), &wamp.Goodbye{Details: wamp.Dict{}, Reason: wamp.CloseGoodbyeAndOut})
	s.closeWith(&wamp.GoodbyeError{Reason: m.Reason, Details: m.Details})
}

func (s *Session) abortProtocolViolation(reason string) {
	_ = s.send(context.Background(), &wamp.Abort{
		Details: wamp.Dict{"message": reason},
		Reason:  wamp.ErrProtocolViolation,
	})
	s.closeWith(&wamp.ProtocolError{Reason: reason})
}
