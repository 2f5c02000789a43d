package wamp

import (
	"fmt"

	"github.com/gowamp/wamp/internal/wiretext"
)

// rawField is one still-encoded element of a WAMP wire array.
type rawField = wiretext.RawMessage

// decoder walks a WAMP message's positional fields, accumulating the
// first error encountered so call sites can decode every field and check
// once at the end.
type decoder struct {
	fields []rawField
	pos    int
	err    error
}

func (d *decoder) next() (rawField, bool) {
	if d.err != nil || d.pos >= len(d.fields) {
		return nil, false
	}
	f := d.fields[d.pos]
	d.pos++
	return f, true
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) id(out *ID) {
	f, ok := d.next()
	if !ok {
		d.fail(fmt.Errorf("wamp: missing id field at position %d", d.pos))
		return
	}
	var v int64
	if err := wiretext.Unmarshal(f, &v); err != nil {
		d.fail(fmt.Errorf("wamp: invalid id field: %w", err))
		return
	}
	*out = ID(v)
}

func (d *decoder) msgType(out *MessageType) {
	var v int
	f, ok := d.next()
	if !ok {
		d.fail(fmt.Errorf("wamp: missing request-type field at position %d", d.pos))
		return
	}
	if err := wiretext.Unmarshal(f, &v); err != nil {
		d.fail(fmt.Errorf("wamp: invalid request-type field: %w", err))
		return
	}
	*out = MessageType(v)
}

func (d *decoder) uri(out *URI) {
	var v string
	f, ok := d.next()
	if !ok {
		d.fail(fmt.Errorf("wamp: missing uri field at position %d", d.pos))
		return
	}
	if err := wiretext.Unmarshal(f, &v); err != nil {
		d.fail(fmt.Errorf("wamp: invalid uri field: %w", err))
		return
	}
	*out = URI(v)
}

func (d *decoder) string(out *string) {
	f, ok := d.next()
	if !ok {
		d.fail(fmt.Errorf("wamp: missing string field at position %d", d.pos))
		return
	}
	if err := wiretext.Unmarshal(f, out); err != nil {
		d.fail(fmt.Errorf("wamp: invalid string field: %w", err))
	}
}

func (d *decoder) dict(out *Dict) {
	f, ok := d.next()
	if !ok {
		// Details/Options are required by the protocol, but be lenient on
		// decode: an absent trailing dict just means "no options".
		*out = Dict{}
		return
	}
	raw, err := wiretext.StrictDict(f)
	if err != nil {
		d.fail(fmt.Errorf("wamp: invalid dict field: %w", err))
		return
	}
	*out = Dict(raw)
}

func (d *decoder) args(out *[]any) {
	f, ok := d.next()
	if !ok {
		*out = nil
		return
	}
	var v []any
	if err := wiretext.Unmarshal(f, &v); err != nil {
		d.fail(fmt.Errorf("wamp: invalid arguments field: %w", err))
		return
	}
	*out = v
}

func (d *decoder) argsKw(out *Dict) {
	f, ok := d.next()
	if !ok {
		*out = nil
		return
	}
	raw, err := wiretext.StrictDict(f)
	if err != nil {
		d.fail(fmt.Errorf("wamp: invalid keyword-arguments field: %w", err))
		return
	}
	*out = Dict(raw)
}
