package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gowamp/wamp"
	"github.com/gowamp/wamp/auth"
	"github.com/gowamp/wamp/transport"
)

type pipeDialer struct {
	conn transport.Connection
}

func (d pipeDialer) Dial(context.Context) (transport.Connection, error) {
	return d.conn, nil
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestAnonymousWelcome is scenario S1: the router welcomes immediately,
// no challenge.
func TestAnonymousWelcome(t *testing.T) {
	client, router := transport.NewPipe()
	ctx := testCtx(t)

	done := make(chan struct{})
	var sess *Session
	var connErr error
	go func() {
		sess, connErr = Connect(ctx, pipeDialer{client}, &ConnectOptions{Realm: "realm1"})
		close(done)
	}()

	hello, err := router.Read(ctx)
	if err != nil {
		t.Fatalf("router read HELLO: %v", err)
	}
	if hello.MessageType() != wamp.HELLO {
		t.Fatalf("got %s, want HELLO", hello.MessageType())
	}
	if err := router.Write(ctx, &wamp.Welcome{Session: 42, Details: wamp.Dict{"authrole": "anonymous"}}); err != nil {
		t.Fatalf("router write WELCOME: %v", err)
	}

	<-done
	if connErr != nil {
		t.Fatalf("Connect: %v", connErr)
	}
	if sess.ID() != 42 {
		t.Fatalf("session id = %d, want 42", sess.ID())
	}
	if sess.AuthRole() != "anonymous" {
		t.Fatalf("authrole = %q, want %q", sess.AuthRole(), "anonymous")
	}
	if sess.State() != StateEstablished {
		t.Fatalf("state = %s, want established", sess.State())
	}
}

// TestChallengeThenWelcome is scenario S2.
func TestChallengeThenWelcome(t *testing.T) {
	client, router := transport.NewPipe()
	ctx := testCtx(t)

	opts := &ConnectOptions{
		Realm:          "realm1",
		Authenticators: []auth.Authenticator{auth.Ticket{Secret: "secret"}},
	}

	done := make(chan struct{})
	var sess *Session
	var connErr error
	go func() {
		sess, connErr = Connect(ctx, pipeDialer{client}, opts)
		close(done)
	}()

	if _, err := router.Read(ctx); err != nil {
		t.Fatalf("router read HELLO: %v", err)
	}
	if err := router.Write(ctx, &wamp.Challenge{AuthMethod: "ticket", Extra: wamp.Dict{}}); err != nil {
		t.Fatalf("router write CHALLENGE: %v", err)
	}

	authenticate, err := router.Read(ctx)
	if err != nil {
		t.Fatalf("router read AUTHENTICATE: %v", err)
	}
	authMsg, ok := authenticate.(*wamp.Authenticate)
	if !ok {
		t.Fatalf("got %T, want *wamp.Authenticate", authenticate)
	}
	if authMsg.Signature != "secret" {
		t.Fatalf("AUTHENTICATE signature = %q, want %q", authMsg.Signature, "secret")
	}

	if err := router.Write(ctx, &wamp.Welcome{Session: 7, Details: wamp.Dict{}}); err != nil {
		t.Fatalf("router write WELCOME: %v", err)
	}

	<-done
	if connErr != nil {
		t.Fatalf("Connect: %v", connErr)
	}
	if sess.ID() != 7 {
		t.Fatalf("session id = %d, want 7", sess.ID())
	}
}

// TestUnsupportedChallenge is scenario S3.
func TestUnsupportedChallenge(t *testing.T) {
	client, router := transport.NewPipe()
	ctx := testCtx(t)

	opts := &ConnectOptions{
		Realm:          "realm1",
		Authenticators: []auth.Authenticator{auth.Ticket{Secret: "secret"}},
	}

	done := make(chan struct{})
	var connErr error
	go func() {
		_, connErr = Connect(ctx, pipeDialer{client}, opts)
		close(done)
	}()

	if _, err := router.Read(ctx); err != nil {
		t.Fatalf("router read HELLO: %v", err)
	}
	if err := router.Write(ctx, &wamp.Challenge{AuthMethod: "wampcra", Extra: wamp.Dict{}}); err != nil {
		t.Fatalf("router write CHALLENGE: %v", err)
	}

	goodbye, err := router.Read(ctx)
	if err != nil {
		t.Fatalf("router read GOODBYE: %v", err)
	}
	gb, ok := goodbye.(*wamp.Goodbye)
	if !ok {
		t.Fatalf("got %T, want *wamp.Goodbye", goodbye)
	}
	if gb.Reason != wamp.CloseGoodbyeAndOut {
		t.Fatalf("GOODBYE reason = %q, want %q", gb.Reason, wamp.CloseGoodbyeAndOut)
	}

	<-done
	if connErr == nil {
		t.Fatal("Connect: expected error, got nil")
	}
}

func establish(t *testing.T, ctx context.Context) (*Session, *transport.Pipe) {
	t.Helper()
	client, router := transport.NewPipe()
	done := make(chan struct{})
	var sess *Session
	var connErr error
	go func() {
		sess, connErr = Connect(ctx, pipeDialer{client}, &ConnectOptions{Realm: "realm1"})
		close(done)
	}()
	if _, err := router.Read(ctx); err != nil {
		t.Fatalf("router read HELLO: %v", err)
	}
	if err := router.Write(ctx, &wamp.Welcome{Session: 1, Details: wamp.Dict{}}); err != nil {
		t.Fatalf("router write WELCOME: %v", err)
	}
	<-done
	if connErr != nil {
		t.Fatalf("Connect: %v", connErr)
	}
	return sess, router
}

// TestCallProgressiveResults is scenario S4.
func TestCallProgressiveResults(t *testing.T) {
	ctx := testCtx(t)
	sess, router := establish(t, ctx)
	defer sess.Close()

	stream, err := sess.Call(ctx, "p", &CallOptions{Options: wamp.Dict{"receive_progress": true}})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	call, err := router.Read(ctx)
	if err != nil {
		t.Fatalf("router read CALL: %v", err)
	}
	c, ok := call.(*wamp.Call)
	if !ok {
		t.Fatalf("got %T, want *wamp.Call", call)
	}

	for _, v := range []float64{1, 2} {
		if err := router.Write(ctx, &wamp.Result{Request: c.Request, Details: wamp.Dict{"progress": true}, Args: []any{v}}); err != nil {
			t.Fatalf("router write progressive RESULT: %v", err)
		}
	}
	if err := router.Write(ctx, &wamp.Result{Request: c.Request, Details: wamp.Dict{}, Args: []any{float64(3)}}); err != nil {
		t.Fatalf("router write terminal RESULT: %v", err)
	}

	var got []any
	for {
		r, ok := stream.Recv(ctx)
		if !ok {
			break
		}
		got = append(got, r.Args[0])
	}
	if stream.Err() != nil {
		t.Fatalf("stream ended with error: %v", stream.Err())
	}
	if len(got) != 3 || got[0] != float64(1) || got[1] != float64(2) || got[2] != float64(3) {
		t.Fatalf("got %v, want [1 2 3]", got)
	}
}

// TestCallCancel is scenario S5.
func TestCallCancel(t *testing.T) {
	ctx := testCtx(t)
	sess, router := establish(t, ctx)
	defer sess.Close()

	stream, err := sess.Call(ctx, "p", nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	call, err := router.Read(ctx)
	if err != nil {
		t.Fatalf("router read CALL: %v", err)
	}
	c := call.(*wamp.Call)

	if err := stream.Cancel(ctx, CancelKill); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	cancel, err := router.Read(ctx)
	if err != nil {
		t.Fatalf("router read CANCEL: %v", err)
	}
	cm, ok := cancel.(*wamp.Cancel)
	if !ok {
		t.Fatalf("got %T, want *wamp.Cancel", cancel)
	}
	if mode, _ := cm.Options["mode"].(string); mode != "kill" {
		t.Fatalf("CANCEL mode = %q, want %q", mode, "kill")
	}

	// Stream stays open until the router sends a terminal response.
	recvDone := make(chan struct{})
	go func() {
		stream.Recv(ctx)
		close(recvDone)
	}()
	select {
	case <-recvDone:
		t.Fatal("stream closed before terminal RESULT/ERROR")
	case <-time.After(30 * time.Millisecond):
	}

	if err := router.Write(ctx, &wamp.Error{RequestType: wamp.CALL, Request: c.Request, Details: wamp.Dict{}, Reason: wamp.ErrCanceled}); err != nil {
		t.Fatalf("router write ERROR: %v", err)
	}
	<-recvDone
}

// TestSubscribeEventUnsubscribe is scenario S6.
func TestSubscribeEventUnsubscribe(t *testing.T) {
	ctx := testCtx(t)
	sess, router := establish(t, ctx)
	defer sess.Close()

	subDone := make(chan *Subscription, 1)
	go func() {
		sub, err := sess.Subscribe(ctx, "t", nil)
		if err != nil {
			t.Errorf("Subscribe: %v", err)
			return
		}
		subDone <- sub
	}()

	subscribe, err := router.Read(ctx)
	if err != nil {
		t.Fatalf("router read SUBSCRIBE: %v", err)
	}
	sreq := subscribe.(*wamp.Subscribe)
	if err := router.Write(ctx, &wamp.Subscribed{Request: sreq.Request, Subscription: 9}); err != nil {
		t.Fatalf("router write SUBSCRIBED: %v", err)
	}
	sub := <-subDone

	if err := router.Write(ctx, &wamp.Event{Subscription: 9, Publication: 100, Details: wamp.Dict{}, Args: []any{"hi"}}); err != nil {
		t.Fatalf("router write EVENT: %v", err)
	}
	ev, ok := sub.Recv(ctx)
	if !ok {
		t.Fatal("Recv: expected an event, got none")
	}
	if ev.Args[0] != "hi" {
		t.Fatalf("event args = %v, want [hi]", ev.Args)
	}

	unsubDone := make(chan error, 1)
	go func() { unsubDone <- sess.Unsubscribe(ctx, sub) }()

	unsubscribe, err := router.Read(ctx)
	if err != nil {
		t.Fatalf("router read UNSUBSCRIBE: %v", err)
	}
	ureq := unsubscribe.(*wamp.Unsubscribe)
	if err := router.Write(ctx, &wamp.Unsubscribed{Request: ureq.Request}); err != nil {
		t.Fatalf("router write UNSUBSCRIBED: %v", err)
	}
	if err := <-unsubDone; err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	// Late event for the now-removed subscription must be dropped.
	if err := router.Write(ctx, &wamp.Event{Subscription: 9, Publication: 101, Details: wamp.Dict{}, Args: []any{"late"}}); err != nil {
		t.Fatalf("router write late EVENT: %v", err)
	}
	recvCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	if _, ok := sub.Recv(recvCtx); ok {
		t.Fatal("Recv: late event was delivered, want dropped")
	}
}

// TestInvocationWithoutRegistration covers invariant 6: an INVOCATION
// lacking a matching registration yields exactly one outbound
// ERROR(INVOCATION, ..., no_such_registration).
func TestInvocationWithoutRegistration(t *testing.T) {
	ctx := testCtx(t)
	sess, router := establish(t, ctx)
	defer sess.Close()

	if err := router.Write(ctx, &wamp.Invocation{Request: 5, Registration: 999, Details: wamp.Dict{}}); err != nil {
		t.Fatalf("router write INVOCATION: %v", err)
	}
	reply, err := router.Read(ctx)
	if err != nil {
		t.Fatalf("router read reply: %v", err)
	}
	e, ok := reply.(*wamp.Error)
	if !ok {
		t.Fatalf("got %T, want *wamp.Error", reply)
	}
	if e.RequestType != wamp.INVOCATION || e.Request != 5 || e.Reason != wamp.ErrNoSuchRegistration {
		t.Fatalf("got %+v, want INVOCATION/5/no_such_registration", e)
	}
}

// TestRequestIDsMonotonic covers invariant 1 for the call class.
func TestRequestIDsMonotonic(t *testing.T) {
	ctx := testCtx(t)
	sess, router := establish(t, ctx)
	defer sess.Close()

	var lastID wamp.ID
	for i := 0; i < 3; i++ {
		if _, err := sess.Call(ctx, "p", nil); err != nil {
			t.Fatalf("Call %d: %v", i, err)
		}
		call, err := router.Read(ctx)
		if err != nil {
			t.Fatalf("router read CALL %d: %v", i, err)
		}
		c := call.(*wamp.Call)
		if c.Request <= lastID {
			t.Fatalf("CALL %d request id %d did not exceed previous %d", i, c.Request, lastID)
		}
		lastID = c.Request
		// The returned stream is never read; the terminal RESULT only
		// clears the call from the pending table. We only care about id
		// allocation order here.
		_ = router.Write(ctx, &wamp.Result{Request: c.Request, Details: wamp.Dict{}})
	}
}

func TestSessionCloseFailsPendingWaiters(t *testing.T) {
	ctx := testCtx(t)
	sess, router := establish(t, ctx)
	_ = router

	resDone := make(chan error, 1)
	go func() {
		_, err := sess.Publish(ctx, "t", &PublishOptions{Acknowledge: true})
		resDone <- err
	}()
	// Give Publish a chance to register its waiter before closing.
	time.Sleep(10 * time.Millisecond)
	sess.Close()

	err := <-resDone
	if !errors.Is(err, wamp.ErrSessionClosed) {
		t.Fatalf("Publish after Close = %v, want wamp.ErrSessionClosed", err)
	}
}
