// Package wiretext provides the JSON codec used to turn WAMP messages into
// bytes, and a strict-decoding guard for the free-form dictionaries
// ("Details", "Options", "Arguments Kw") that appear throughout the protocol.
//
// WAMP messages are serialized as top-level JSON arrays
// (e.g. [HELLO, "realm1", {...}]), not objects, so most of the
// case-smuggling concerns that apply to tagged JSON objects don't apply
// here. The one place they still bite is inside a message's dictionary
// arguments, where a router or a malicious peer could try to smuggle a
// second "authid" under a different case. StrictDict guards against that.
package wiretext

import (
	"fmt"
	"strings"

	json "github.com/segmentio/encoding/json"
)

// RawMessage holds a still-encoded JSON value, letting callers defer
// decoding a field (e.g. to dispatch on a leading message-code element
// before committing to a struct shape).
type RawMessage = json.RawMessage

// Marshal encodes v as JSON using the fast segmentio encoder.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON data into v using the fast segmentio decoder.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// StrictDict parses data as a JSON object and rejects keys that differ only
// by case, which would otherwise let a peer smuggle two logical values
// ("authid" and "AuthID") past code that looks up a single canonical key.
func StrictDict(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("wiretext: not a JSON object: %w", err)
	}
	seen := make(map[string]string, len(raw))
	for key := range raw {
		lower := strings.ToLower(key)
		if orig, ok := seen[lower]; ok && orig != key {
			return nil, fmt.Errorf("wiretext: duplicate key with different case: %q and %q", orig, key)
		}
		seen[lower] = key
	}
	return raw, nil
}
