package session

// State is the authentication state of a Session.
type State int

const (
	// StateUnauthenticated means no valid token is held.
	StateUnauthenticated State = iota

	// StateAuthenticating means a login handshake is in progress.
	StateAuthenticating

	// StateAuthenticated means a token is held and was accepted last time.
	StateAuthenticated

	// StateFailed means re-authentication was exhausted or rejected.
	// A successful Login recovers.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

var allStates = []string{
	StateUnauthenticated.String(),
	StateAuthenticating.String(),
	StateAuthenticated.String(),
	StateFailed.String(),
}
