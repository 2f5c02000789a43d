// Package wamp defines the wire-level vocabulary of the Web Application
// Messaging Protocol: message kinds, the typed Go values that carry their
// fields, identifiers, and URIs. It has no notion of a session, a
// transport, or a network connection — those live in the transport and
// session packages. This package is the "what", not the "how".
package wamp

import (
	"fmt"

	"github.com/gowamp/wamp/internal/wiretext"
)

// MessageType is the integer message code that appears as the first
// element of every WAMP wire message.
type MessageType int

// Standard WAMP message codes. See the Advanced Profile and Basic Profile
// specifications; the core client only emits and accepts this subset.
const (
	HELLO        MessageType = 1
	WELCOME      MessageType = 2
	ABORT        MessageType = 3
	CHALLENGE    MessageType = 4
	AUTHENTICATE MessageType = 5
	GOODBYE      MessageType = 6
	ERROR        MessageType = 8

	PUBLISH      MessageType = 16
	PUBLISHED    MessageType = 17
	SUBSCRIBE    MessageType = 32
	SUBSCRIBED   MessageType = 33
	UNSUBSCRIBE  MessageType = 34
	UNSUBSCRIBED MessageType = 35
	EVENT        MessageType = 36

	CALL   MessageType = 48
	CANCEL MessageType = 49
	RESULT MessageType = 50

	REGISTER     MessageType = 64
	REGISTERED   MessageType = 65
	UNREGISTER   MessageType = 66
	UNREGISTERED MessageType = 67
	INVOCATION   MessageType = 68
	YIELD        MessageType = 70
)

func (t MessageType) String() string {
	switch t {
	case HELLO:
		return "HELLO"
	case WELCOME:
		return "WELCOME"
	case ABORT:
		return "ABORT"
	case CHALLENGE:
		return "CHALLENGE"
	case AUTHENTICATE:
		return "AUTHENTICATE"
	case GOODBYE:
		return "GOODBYE"
	case ERROR:
		return "ERROR"
	case PUBLISH:
		return "PUBLISH"
	case PUBLISHED:
		return "PUBLISHED"
	case SUBSCRIBE:
		return "SUBSCRIBE"
	case SUBSCRIBED:
		return "SUBSCRIBED"
	case UNSUBSCRIBE:
		return "UNSUBSCRIBE"
	case UNSUBSCRIBED:
		return "UNSUBSCRIBED"
	case EVENT:
		return "EVENT"
	case CALL:
		return "CALL"
	case CANCEL:
		return "CANCEL"
	case RESULT:
		return "RESULT"
	case REGISTER:
		return "REGISTER"
	case REGISTERED:
		return "REGISTERED"
	case UNREGISTER:
		return "UNREGISTER"
	case UNREGISTERED:
		return "UNREGISTERED"
	case INVOCATION:
		return "INVOCATION"
	case YIELD:
		return "YIELD"
	default:
		return fmt.Sprintf("MessageType(%d)", int(t))
	}
}

// ID is a WAMP request, session, subscription, registration, or publication
// identifier. The protocol treats these as 53-bit non-negative integers.
type ID int64

// URI is a WAMP dot-separated identifier, used for realms, procedures,
// topics, and error reasons. Validate with IsValidURI.
type URI string

// Dict is a free-form keyword dictionary, used for Details, Options, and
// keyword Arguments throughout the protocol.
type Dict map[string]any

// Message is any value that can appear as a top-level WAMP wire message.
type Message interface {
	// MessageType identifies the wire code for this message.
	MessageType() MessageType
}

// HasRequestID is implemented by messages that carry a request ID
// (everything except HELLO, WELCOME, ABORT, CHALLENGE, AUTHENTICATE,
// GOODBYE, and EVENT, which key off other identifiers or none at all).
type HasRequestID interface {
	Message
	RequestID() ID
}

type Hello struct {
	Realm   URI
	Details Dict
}

func (*Hello) MessageType() MessageType { return HELLO }

type Welcome struct {
	Session ID
	Details Dict
}

func (*Welcome) MessageType() MessageType { return WELCOME }

type Abort struct {
	Details Dict
	Reason  URI
}

func (*Abort) MessageType() MessageType { return ABORT }

type Challenge struct {
	AuthMethod string
	Extra      Dict
}

func (*Challenge) MessageType() MessageType { return CHALLENGE }

type Authenticate struct {
	Signature string
	Extra     Dict
}

func (*Authenticate) MessageType() MessageType { return AUTHENTICATE }

type Goodbye struct {
	Details Dict
	Reason  URI
}

func (*Goodbye) MessageType() MessageType { return GOODBYE }

// Error carries a router- or peer-reported failure correlated to a prior
// request. RequestType names the kind of the original request (CALL,
// SUBSCRIBE, ...); Request is that request's ID.
type Error struct {
	RequestType MessageType
	Request     ID
	Details     Dict
	Reason      URI
	Args        []any
	ArgsKw      Dict
}

func (*Error) MessageType() MessageType { return ERROR }
func (e *Error) RequestID() ID          { return e.Request }

func (e *Error) Error() string {
	if len(e.Args) > 0 {
		return fmt.Sprintf("%s: %v", e.Reason, e.Args[0])
	}
	return string(e.Reason)
}

type Publish struct {
	Request ID
	Options Dict
	Topic   URI
	Args    []any
	ArgsKw  Dict
}

func (*Publish) MessageType() MessageType { return PUBLISH }
func (m *Publish) RequestID() ID          { return m.Request }

type Published struct {
	Request     ID
	Publication ID
}

func (*Published) MessageType() MessageType { return PUBLISHED }
func (m *Published) RequestID() ID          { return m.Request }

type Subscribe struct {
	Request ID
	Options Dict
	Topic   URI
}

func (*Subscribe) MessageType() MessageType { return SUBSCRIBE }
func (m *Subscribe) RequestID() ID          { return m.Request }

type Subscribed struct {
	Request      ID
	Subscription ID
}

func (*Subscribed) MessageType() MessageType { return SUBSCRIBED }
func (m *Subscribed) RequestID() ID          { return m.Request }

type Unsubscribe struct {
	Request      ID
	Subscription ID
}

func (*Unsubscribe) MessageType() MessageType { return UNSUBSCRIBE }
func (m *Unsubscribe) RequestID() ID          { return m.Request }

type Unsubscribed struct {
	Request ID
}

func (*Unsubscribed) MessageType() MessageType { return UNSUBSCRIBED }
func (m *Unsubscribed) RequestID() ID          { return m.Request }

type Event struct {
	Subscription ID
	Publication  ID
	Details      Dict
	Args         []any
	ArgsKw       Dict
}

func (*Event) MessageType() MessageType { return EVENT }

type Call struct {
	Request   ID
	Options   Dict
	Procedure URI
	Args      []any
	ArgsKw    Dict
}

func (*Call) MessageType() MessageType { return CALL }
func (m *Call) RequestID() ID          { return m.Request }

type Cancel struct {
	Request ID
	Options Dict
}

func (*Cancel) MessageType() MessageType { return CANCEL }
func (m *Cancel) RequestID() ID          { return m.Request }

type Result struct {
	Request ID
	Details Dict
	Args    []any
	ArgsKw  Dict
}

func (*Result) MessageType() MessageType { return RESULT }
func (m *Result) RequestID() ID          { return m.Request }

// Progress reports whether this RESULT is one of a progressive sequence
// (per WAMP, a progress flag set in Details) rather than the final result.
func (m *Result) Progress() bool {
	if m.Details == nil {
		return false
	}
	p, _ := m.Details["progress"].(bool)
	return p
}

type Register struct {
	Request   ID
	Options   Dict
	Procedure URI
}

func (*Register) MessageType() MessageType { return REGISTER }
func (m *Register) RequestID() ID          { return m.Request }

type Registered struct {
	Request      ID
	Registration ID
}

func (*Registered) MessageType() MessageType { return REGISTERED }
func (m *Registered) RequestID() ID          { return m.Request }

type Unregister struct {
	Request      ID
	Registration ID
}

func (*Unregister) MessageType() MessageType { return UNREGISTER }
func (m *Unregister) RequestID() ID          { return m.Request }

type Unregistered struct {
	Request ID
}

func (*Unregistered) MessageType() MessageType { return UNREGISTERED }
func (m *Unregistered) RequestID() ID          { return m.Request }

type Invocation struct {
	Request      ID
	Registration ID
	Details      Dict
	Args         []any
	ArgsKw       Dict
}

func (*Invocation) MessageType() MessageType { return INVOCATION }
func (m *Invocation) RequestID() ID          { return m.Request }

type Yield struct {
	Request ID
	Options Dict
	Args    []any
	ArgsKw  Dict
}

func (*Yield) MessageType() MessageType { return YIELD }
func (m *Yield) RequestID() ID          { return m.Request }

// Encode renders msg as its WAMP wire form: a JSON array whose first
// element is the message code, followed by the message's fields in
// protocol-defined order.
func Encode(msg Message) ([]byte, error) {
	var fields []any
	switch m := msg.(type) {
	case *Hello:
		fields = []any{m.Realm, m.Details}
	case *Welcome:
		fields = []any{m.Session, m.Details}
	case *Abort:
		fields = []any{m.Details, m.Reason}
	case *Challenge:
		fields = []any{m.AuthMethod, m.Extra}
	case *Authenticate:
		fields = []any{m.Signature, m.Extra}
	case *Goodbye:
		fields = []any{m.Details, m.Reason}
	case *Error:
		fields = []any{m.RequestType, m.Request, m.Details, m.Reason}
		fields = appendArgs(fields, m.Args, m.ArgsKw)
	case *Publish:
		fields = []any{m.Request, m.Options, m.Topic}
		fields = appendArgs(fields, m.Args, m.ArgsKw)
	case *Published:
		fields = []any{m.Request, m.Publication}
	case *Subscribe:
		fields = []any{m.Request, m.Options, m.Topic}
	case *Subscribed:
		fields = []any{m.Request, m.Subscription}
	case *Unsubscribe:
		fields = []any{m.Request, m.Subscription}
	case *Unsubscribed:
		fields = []any{m.Request}
	case *Event:
		fields = []any{m.Subscription, m.Publication, m.Details}
		fields = appendArgs(fields, m.Args, m.ArgsKw)
	case *Call:
		fields = []any{m.Request, m.Options, m.Procedure}
		fields = appendArgs(fields, m.Args, m.ArgsKw)
	case *Cancel:
		fields = []any{m.Request, m.Options}
	case *Result:
		fields = []any{m.Request, m.Details}
		fields = appendArgs(fields, m.Args, m.ArgsKw)
	case *Register:
		fields = []any{m.Request, m.Options, m.Procedure}
	case *Registered:
		fields = []any{m.Request, m.Registration}
	case *Unregister:
		fields = []any{m.Request, m.Registration}
	case *Unregistered:
		fields = []any{m.Request}
	case *Invocation:
		fields = []any{m.Request, m.Registration, m.Details}
		fields = appendArgs(fields, m.Args, m.ArgsKw)
	case *Yield:
		fields = []any{m.Request, m.Options}
		fields = appendArgs(fields, m.Args, m.ArgsKw)
	default:
		return nil, fmt.Errorf("wamp: unknown message type %T", msg)
	}
	wire := make([]any, 0, len(fields)+1)
	wire = append(wire, msg.MessageType())
	wire = append(wire, fields...)
	return wiretext.Marshal(wire)
}

// appendArgs appends positional and keyword arguments, omitting the
// keyword dict when both are empty (the common case) but always including
// Args when ArgsKw is present, per WAMP's "no gaps" array rule.
func appendArgs(fields []any, args []any, kwargs Dict) []any {
	if len(args) == 0 && len(kwargs) == 0 {
		return fields
	}
	if args == nil {
		args = []any{}
	}
	fields = append(fields, args)
	if len(kwargs) > 0 {
		fields = append(fields, kwargs)
	}
	return fields
}

// Decode parses a WAMP wire message (a JSON array led by its message
// code) into the corresponding typed Message value.
func Decode(data []byte) (Message, error) {
	var raw []rawField
	if err := wiretext.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("wamp: malformed message: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("wamp: empty message")
	}
	var code int
	if err := wiretext.Unmarshal(raw[0], &code); err != nil {
		return nil, fmt.Errorf("wamp: malformed message code: %w", err)
	}
	d := &decoder{fields: raw[1:]}
	switch MessageType(code) {
	case HELLO:
		m := &Hello{}
		d.uri(&m.Realm)
		d.dict(&m.Details)
		return m, d.err
	case WELCOME:
		m := &Welcome{}
		d.id(&m.Session)
		d.dict(&m.Details)
		return m, d.err
	case ABORT:
		m := &Abort{}
		d.dict(&m.Details)
		d.uri(&m.Reason)
		return m, d.err
	case CHALLENGE:
		m := &Challenge{}
		d.string(&m.AuthMethod)
		d.dict(&m.Extra)
		return m, d.err
	case AUTHENTICATE:
		m := &Authenticate{}
		d.string(&m.Signature)
		d.dict(&m.Extra)
		return m, d.err
	case GOODBYE:
		m := &Goodbye{}
		d.dict(&m.Details)
		d.uri(&m.Reason)
		return m, d.err
	case ERROR:
		m := &Error{}
		d.msgType(&m.RequestType)
		d.id(&m.Request)
		d.dict(&m.Details)
		d.uri(&m.Reason)
		d.args(&m.Args)
		d.argsKw(&m.ArgsKw)
		return m, d.err
	case PUBLISH:
		m := &Publish{}
		d.id(&m.Request)
		d.dict(&m.Options)
		d.uri(&m.Topic)
		d.args(&m.Args)
		d.argsKw(&m.ArgsKw)
		return m, d.err
	case PUBLISHED:
		m := &Published{}
		d.id(&m.Request)
		d.id(&m.Publication)
		return m, d.err
	case SUBSCRIBE:
		m := &Subscribe{}
		d.id(&m.Request)
		d.dict(&m.Options)
		d.uri(&m.Topic)
		return m, d.err
	case SUBSCRIBED:
		m := &Subscribed{}
		d.id(&m.Request)
		d.id(&m.Subscription)
		return m, d.err
	case UNSUBSCRIBE:
		m := &Unsubscribe{}
		d.id(&m.Request)
		d.id(&m.Subscription)
		return m, d.err
	case UNSUBSCRIBED:
		m := &Unsubscribed{}
		d.id(&m.Request)
		return m, d.err
	case EVENT:
		m := &Event{}
		d.id(&m.Subscription)
		d.id(&m.Publication)
		d.dict(&m.Details)
		d.args(&m.Args)
		d.argsKw(&m.ArgsKw)
		return m, d.err
	case CALL:
		m := &Call{}
		d.id(&m.Request)
		d.dict(&m.Options)
		d.uri(&m.Procedure)
		d.args(&m.Args)
		d.argsKw(&m.ArgsKw)
		return m, d.err
	case CANCEL:
		m := &Cancel{}
		d.id(&m.Request)
		d.dict(&m.Options)
		return m, d.err
	case RESULT:
		m := &Result{}
		d.id(&m.Request)
		d.dict(&m.Details)
		d.args(&m.Args)
		d.argsKw(&m.ArgsKw)
		return m, d.err
	case REGISTER:
		m := &Register{}
		d.id(&m.Request)
		d.dict(&m.Options)
		d.uri(&m.Procedure)
		return m, d.err
	case REGISTERED:
		m := &Registered{}
		d.id(&m.Request)
		d.id(&m.Registration)
		return m, d.err
	case UNREGISTER:
		m := &Unregister{}
		d.id(&m.Request)
		d.id(&m.Registration)
		return m, d.err
	case UNREGISTERED:
		m := &Unregistered{}
		d.id(&m.Request)
		return m, d.err
	case INVOCATION:
		m := &Invocation{}
		d.id(&m.Request)
		d.id(&m.Registration)
		d.dict(&m.Details)
		d.args(&m.Args)
		d.argsKw(&m.ArgsKw)
		return m, d.err
	case YIELD:
		m := &Yield{}
		d.id(&m.Request)
		d.dict(&m.Options)
		d.args(&m.Args)
		d.argsKw(&m.ArgsKw)
		return m, d.err
	default:
		return nil, fmt.Errorf("wamp: unknown message code %d", code)
	}
}
