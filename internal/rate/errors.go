package rate

import "errors"

var (
	// ErrLimited is returned when a sign-in attempt budget is exhausted.
	ErrLimited = errors.New("sign-in rate limited")
	// ErrUnavailable is returned when the Redis backing the throttle
	// cannot be reached.
	ErrUnavailable = errors.New("throttle store unavailable")
)
