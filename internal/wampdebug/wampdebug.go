// Package wampdebug provides a mechanism to configure compatibility and
// diagnostic parameters via the WAMPGODEBUG environment variable.
//
// The value of WAMPGODEBUG is a comma-separated list of key=value pairs.
// The only key read by this module is dumpmessages. For example:
//
//	WAMPGODEBUG=dumpmessages=1
package wampdebug

import (
	"fmt"
	"os"
	"strings"
)

const envKey = "WAMPGODEBUG"

var params map[string]string

func init() {
	var err error
	params, err = parse(os.Getenv(envKey))
	if err != nil {
		panic(err)
	}
}

// Value returns the value of the debug parameter with the given key.
// It returns an empty string if the key is not set.
func Value(key string) string {
	return params[key]
}

func parse(envValue string) (map[string]string, error) {
	if envValue == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(envValue, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("WAMPGODEBUG: invalid format: %q", part)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}
