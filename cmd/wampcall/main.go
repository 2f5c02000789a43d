// wampcall connects to a WAMP router and invokes a single procedure,
// printing every RESULT it receives.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/gowamp/wamp"
	"github.com/gowamp/wamp/auth"
	"github.com/gowamp/wamp/session"
	"github.com/gowamp/wamp/transport"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "WAMP router WebSocket URL")
	realm := flag.String("realm", "realm1", "realm to join")
	procedure := flag.String("procedure", "", "procedure to call")
	argsJSON := flag.String("args", "[]", "JSON array of positional call arguments")
	ticket := flag.String("ticket", "", "ticket auth secret (omit for anonymous)")
	flag.Parse()

	if *procedure == "" {
		log.Fatal("wampcall: -procedure is required")
	}
	var args []any
	if err := json.Unmarshal([]byte(*argsJSON), &args); err != nil {
		log.Fatalf("wampcall: parsing -args: %v", err)
	}

	ctx := context.Background()
	opts := &session.ConnectOptions{Realm: wamp.URI(*realm)}
	if *ticket != "" {
		opts.Authenticators = []auth.Authenticator{auth.Ticket{Secret: *ticket}}
	}

	dialer := &transport.WebSocketDialer{URL: *url}
	fmt.Printf("connecting to %s (realm %s)...\n", *url, *realm)
	sess, err := session.Connect(ctx, dialer, opts)
	if err != nil {
		log.Fatalf("wampcall: connect: %v", err)
	}
	defer sess.Close()
	fmt.Printf("session %d established\n", sess.ID())

	stream, err := sess.Call(ctx, wamp.URI(*procedure), &session.CallOptions{Args: args})
	if err != nil {
		log.Fatalf("wampcall: call: %v", err)
	}

	for {
		result, ok := stream.Recv(ctx)
		if !ok {
			break
		}
		fmt.Println(formatResult(result))
	}
	if err := stream.Err(); err != nil {
		log.Fatalf("wampcall: call failed: %v", err)
	}
}

func formatResult(r *wamp.Result) string {
	parts := make([]string, 0, len(r.Args)+len(r.ArgsKw))
	for _, v := range r.Args {
		parts = append(parts, fmt.Sprintf("%v", v))
	}
	for k, v := range r.ArgsKw {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, " ")
}
