package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/gowamp/wamp"
)

// jsonSubprotocol is the WebSocket subprotocol negotiated for the JSON
// text serialization, per the WAMP WebSocket transport spec.
const jsonSubprotocol = "wamp.2.json"

// WebSocketDialer connects to a WAMP router over a WebSocket, using the
// "wamp.2.json" subprotocol.
type WebSocketDialer struct {
	// URL is the router's WebSocket endpoint, e.g. "wss://example.com/ws".
	URL string

	// Dialer is the WebSocket dialer to use. If nil, websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// Header carries additional HTTP headers for the handshake request.
	Header http.Header

	// SendLimiter, if set, throttles outbound message sends, bounding how
	// fast this client can flood a router (e.g. during a tight CALL or
	// PUBLISH loop). Nil means unlimited.
	SendLimiter *rate.Limiter
}

func (d *WebSocketDialer) Dial(ctx context.Context) (Connection, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	dialer.Subprotocols = []string{jsonSubprotocol}

	conn, resp, err := dialer.DialContext(ctx, d.URL, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transport: websocket dial failed: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("transport: websocket dial failed: %w", err)
	}
	return &websocketConn{conn: conn, limiter: d.SendLimiter}, nil
}

// websocketConn adapts a *websocket.Conn to the Connection interface,
// serializing messages with the wamp package's JSON wire codec.
type websocketConn struct {
	conn    *websocket.Conn
	limiter *rate.Limiter

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *websocketConn) Read(ctx context.Context) (wamp.Message, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-done:
		}
	}()

	msgType, data, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("transport: websocket read error: %w", err)
	}
	if msgType != websocket.TextMessage {
		return nil, fmt.Errorf("transport: unexpected websocket frame type %d (expected text)", msgType)
	}
	msg, err := wamp.Decode(data)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (c *websocketConn) Write(ctx context.Context, msg wamp.Message) error {
	data, err := wamp.Encode(msg)
	if err != nil {
		return err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("transport: websocket write error: %w", err)
	}
	return nil
}

func (c *websocketConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// ServerUpgrader upgrades incoming HTTP requests to WAMP-over-WebSocket
// connections. It is the server-side counterpart used by in-process test
// routers and examples; production router behavior is out of scope for
// this module.
type ServerUpgrader struct {
	upgrader websocket.Upgrader
}

// NewServerUpgrader returns a ServerUpgrader that accepts the
// "wamp.2.json" subprotocol from any origin. The underlying
// websocket.Upgrader is unexported, so origin checking cannot be
// configured on the returned value.
func NewServerUpgrader() *ServerUpgrader {
	return &ServerUpgrader{
		upgrader: websocket.Upgrader{
			Subprotocols:    []string{jsonSubprotocol},
			CheckOrigin:     func(r *http.Request) bool { return true },
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Upgrade upgrades a single HTTP request to a Connection.
func (u *ServerUpgrader) Upgrade(w http.ResponseWriter, r *http.Request) (Connection, error) {
	conn, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: websocket upgrade failed: %w", err)
	}
	return &websocketConn{conn: conn}, nil
}
