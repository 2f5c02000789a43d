package wamp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func roundTrip(t *testing.T, msg Message) Message {
	t.Helper()
	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode(%#v) failed: %v", msg, err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode(%s) failed: %v", data, err)
	}
	return got
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"hello", &Hello{Realm: "realm1", Details: Dict{"authid": "alice"}}},
		{"welcome", &Welcome{Session: 42, Details: Dict{"authrole": "anonymous"}}},
		{"abort", &Abort{Details: Dict{"message": "nope"}, Reason: ErrAuthenticationFailed}},
		{"challenge", &Challenge{AuthMethod: "ticket", Extra: Dict{}}},
		{"authenticate", &Authenticate{Signature: "secret", Extra: Dict{}}},
		{"goodbye", &Goodbye{Details: Dict{}, Reason: CloseGoodbyeAndOut}},
		{"error-no-args", &Error{RequestType: CALL, Request: 1, Details: Dict{}, Reason: ErrNoSuchProcedure}},
		{"error-with-args", &Error{RequestType: CALL, Request: 1, Details: Dict{}, Reason: ErrNoSuchProcedure, Args: []any{"boom"}, ArgsKw: Dict{"why": "testing"}}},
		{"publish", &Publish{Request: 1, Options: Dict{}, Topic: "t.1", Args: []any{"hi"}}},
		{"published", &Published{Request: 1, Publication: 100}},
		{"subscribe", &Subscribe{Request: 1, Options: Dict{}, Topic: "t.1"}},
		{"subscribed", &Subscribed{Request: 1, Subscription: 9}},
		{"unsubscribe", &Unsubscribe{Request: 2, Subscription: 9}},
		{"unsubscribed", &Unsubscribed{Request: 2}},
		{"event", &Event{Subscription: 9, Publication: 100, Details: Dict{}, Args: []any{"hi"}}},
		{"call", &Call{Request: 1, Options: Dict{}, Procedure: "p", Args: []any{float64(1)}}},
		{"cancel", &Cancel{Request: 1, Options: Dict{"mode": "kill"}}},
		{"result", &Result{Request: 1, Details: Dict{}, Args: []any{float64(3)}}},
		{"register", &Register{Request: 1, Options: Dict{}, Procedure: "p"}},
		{"registered", &Registered{Request: 1, Registration: 5}},
		{"unregister", &Unregister{Request: 2, Registration: 5}},
		{"unregistered", &Unregistered{Request: 2}},
		{"invocation", &Invocation{Request: 1, Registration: 5, Details: Dict{}, Args: []any{float64(2)}}},
		{"yield", &Yield{Request: 1, Options: Dict{}, Args: []any{float64(2)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, tt.msg)
			if diff := cmp.Diff(tt.msg, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			if got.MessageType() != tt.msg.MessageType() {
				t.Errorf("MessageType() = %v, want %v", got.MessageType(), tt.msg.MessageType())
			}
		})
	}
}

func TestDecodeUnknownCode(t *testing.T) {
	if _, err := Decode([]byte(`[999]`)); err == nil {
		t.Fatal("expected error for unknown message code")
	}
}

func TestDecodeEmptyArray(t *testing.T) {
	if _, err := Decode([]byte(`[]`)); err == nil {
		t.Fatal("expected error for empty array")
	}
}

func TestDecodeRejectsCaseSmuggledDetails(t *testing.T) {
	_, err := Decode([]byte(`[1,"realm1",{"authid":"alice","AuthID":"mallory"}]`))
	if err == nil {
		t.Fatal("expected error for case-smuggled details dict")
	}
}

func TestResultProgress(t *testing.T) {
	r := &Result{Details: Dict{"progress": true}}
	if !r.Progress() {
		t.Error("Progress() = false, want true")
	}
	r2 := &Result{Details: Dict{}}
	if r2.Progress() {
		t.Error("Progress() = true, want false")
	}
}

func TestIsValidURI(t *testing.T) {
	tests := []struct {
		uri        URI
		allowEmpty bool
		want       bool
	}{
		{"com.example.foo", false, true},
		{"com.example.foo_bar", false, true},
		{"", false, false},
		{".com.example", false, false},
		{"com.example.", false, false},
		{"com..example", false, false},
		{"com..example", true, true},
		{"com.example!", false, false},
	}
	for _, tt := range tests {
		if got := IsValidURI(tt.uri, tt.allowEmpty); got != tt.want {
			t.Errorf("IsValidURI(%q, %v) = %v, want %v", tt.uri, tt.allowEmpty, got, tt.want)
		}
	}
}
