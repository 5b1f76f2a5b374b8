package admingate

import "errors"

var (
	// ErrInvalidCredentials is an exported constant or variable used by the session authority.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSignInRateLimited is an exported constant or variable used by the session authority.
	ErrSignInRateLimited = errors.New("sign-in rate limited")
	// ErrInsufficientRole is an exported constant or variable used by the session authority.
	ErrInsufficientRole = errors.New("insufficient role")
	// ErrProviderUnavailable is an exported constant or variable used by the session authority.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	// ErrSessionUnavailable is an exported constant or variable used by the session authority.
	ErrSessionUnavailable = errors.New("session store unavailable")
	// ErrAuthorityNotReady is an exported constant or variable used by the session authority.
	ErrAuthorityNotReady = errors.New("authority not initialized")
)
