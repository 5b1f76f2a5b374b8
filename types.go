package admingate

import "time"

// SessionInfo is returned by [Authority.SessionInfo]. It is a pure read of
// the cached session record: producing it never touches the identity
// provider and never mutates the cache.
type SessionInfo struct {
	Authenticated bool
	UserID        string
	TimeRemaining time.Duration
}
