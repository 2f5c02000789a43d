package transport

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/gowamp/wamp"
)

func TestPipeRoundTrip(t *testing.T) {
	a, b := NewPipe()
	ctx := context.Background()

	want := &wamp.Hello{Realm: "realm1", Details: wamp.Dict{}}
	if err := a.Write(ctx, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := b.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.MessageType() != wamp.HELLO {
		t.Fatalf("got message type %v, want HELLO", got.MessageType())
	}
}

func TestPipeCloseYieldsEOF(t *testing.T) {
	a, b := NewPipe()
	a.Close()
	_, err := b.Read(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Read after peer close = %v, want io.EOF", err)
	}
}

func TestPipeWriteAfterCloseFails(t *testing.T) {
	a, _ := NewPipe()
	a.Close()
	if err := a.Write(context.Background(), &wamp.Goodbye{Details: wamp.Dict{}, Reason: wamp.CloseGoodbyeAndOut}); err == nil {
		t.Fatal("Write after Close: expected error, got nil")
	}
}

func TestPipeContextCancel(t *testing.T) {
	a, _ := NewPipe()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := a.Read(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Read with no peer writes = %v, want context.DeadlineExceeded", err)
	}
}
