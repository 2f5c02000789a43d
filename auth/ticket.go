package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/gowamp/wamp"
)

// Ticket implements the "ticket" authmethod: the AUTHENTICATE signature is
// simply a pre-shared secret, with no use of the CHALLENGE payload at all.
type Ticket struct {
	Secret string
}

func (Ticket) Name() string { return "ticket" }

func (t Ticket) Challenge(context.Context, wamp.Dict) (*wamp.Authenticate, error) {
	return &wamp.Authenticate{Signature: t.Secret, Extra: wamp.Dict{}}, nil
}

// OAuthTicket implements "ticket" auth whose secret is an OAuth2 access
// token obtained from a token source, rather than a static string. This
// lets a client authenticate against a router fronted by a gateway that
// validates bearer tokens as WAMP tickets.
type OAuthTicket struct {
	Source oauth2.TokenSource
}

func (OAuthTicket) Name() string { return "ticket" }

func (t OAuthTicket) Challenge(ctx context.Context, _ wamp.Dict) (*wamp.Authenticate, error) {
	if t.Source == nil {
		return nil, fmt.Errorf("auth: OAuthTicket has no token source")
	}
	tok, err := t.Source.Token()
	if err != nil {
		return nil, fmt.Errorf("auth: obtaining OAuth2 token for ticket: %w", err)
	}
	return &wamp.Authenticate{Signature: tok.AccessToken, Extra: wamp.Dict{}}, nil
}
