package auth

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/gowamp/wamp"
)

func TestSelectFirstMatch(t *testing.T) {
	methods := []Authenticator{Ticket{Secret: "a"}, CRA{Secret: "b"}}
	got := Select(methods, "wampcra")
	if got == nil || got.Name() != "wampcra" {
		t.Fatalf("Select(wampcra) = %v, want the CRA authenticator", got)
	}
	if Select(methods, "cryptosign") != nil {
		t.Fatalf("Select(cryptosign) = non-nil, want nil")
	}
}

func TestNames(t *testing.T) {
	methods := []Authenticator{Ticket{Secret: "a"}, CRA{Secret: "b"}}
	got := Names(methods)
	want := []string{"ticket", "wampcra"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}

func TestTicketChallenge(t *testing.T) {
	a := Ticket{Secret: "s3cr3t"}
	reply, err := a.Challenge(context.Background(), wamp.Dict{"challenge": "ignored"})
	if err != nil {
		t.Fatalf("Challenge: %v", err)
	}
	if reply.Signature != "s3cr3t" {
		t.Fatalf("Signature = %q, want %q", reply.Signature, "s3cr3t")
	}
}

func TestCRAChallengeSignsWithHMAC(t *testing.T) {
	a := CRA{Secret: "sekret"}
	reply, err := a.Challenge(context.Background(), wamp.Dict{"challenge": "the-challenge-string"})
	if err != nil {
		t.Fatalf("Challenge: %v", err)
	}

	want, err := jwt.SigningMethodHS256.Sign("the-challenge-string", []byte("sekret"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	wantSig := base64.StdEncoding.EncodeToString(want)
	if reply.Signature != wantSig {
		t.Fatalf("Signature = %q, want %q", reply.Signature, wantSig)
	}
}

func TestCRAChallengeMissingChallengeField(t *testing.T) {
	a := CRA{Secret: "sekret"}
	if _, err := a.Challenge(context.Background(), wamp.Dict{}); err == nil {
		t.Fatal("Challenge with no challenge field: expected error, got nil")
	}
}

type staticTokenSource struct {
	token string
}

func (s staticTokenSource) Token() (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: s.token}, nil
}

func TestOAuthTicketChallenge(t *testing.T) {
	a := OAuthTicket{Source: staticTokenSource{token: "access-tok"}}
	reply, err := a.Challenge(context.Background(), wamp.Dict{})
	if err != nil {
		t.Fatalf("Challenge: %v", err)
	}
	if reply.Signature != "access-tok" {
		t.Fatalf("Signature = %q, want %q", reply.Signature, "access-tok")
	}
}

func TestOAuthTicketChallengeNoSource(t *testing.T) {
	a := OAuthTicket{}
	if _, err := a.Challenge(context.Background(), wamp.Dict{}); err == nil {
		t.Fatal("Challenge with nil Source: expected error, got nil")
	}
}
