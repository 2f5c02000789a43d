package wamp

import "strings"

// Well-known reasons and errors used by the core itself; authentication
// methods and application code may use many more.
const (
	CloseGoodbyeAndOut      URI = "wamp.close.goodbye_and_out"
	CloseCloseRealm         URI = "wamp.close.close_realm"
	ErrNoSuchRegistration   URI = "wamp.error.no_such_registration"
	ErrNoSuchSubscription   URI = "wamp.error.no_such_subscription"
	ErrNoSuchProcedure      URI = "wamp.error.no_such_procedure"
	ErrProtocolViolation    URI = "wamp.error.protocol_violation"
	ErrAuthenticationFailed URI = "wamp.error.authentication_failed"
	ErrCanceled             URI = "wamp.error.canceled"
)

// IsValidURI reports whether s matches the WAMP URI pattern: one or more
// dot-separated segments of letters, digits, and underscores, with no
// leading, trailing, or empty segment, unless allowEmpty permits the
// empty-segment wildcard form used by pattern-based subscriptions.
func IsValidURI(s URI, allowEmpty bool) bool {
	if s == "" {
		return false
	}
	segments := strings.Split(string(s), ".")
	for _, seg := range segments {
		if seg == "" {
			if allowEmpty {
				continue
			}
			return false
		}
		for _, r := range seg {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			default:
				return false
			}
		}
	}
	return true
}
