package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredential is returned by Authenticate when the identifier
	// or secret is not accepted. Providers must return it for both unknown
	// identifiers and wrong secrets so callers cannot distinguish the two.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrUnavailable is returned when the backing identity store cannot be
	// reached or responds outside its deadline.
	ErrUnavailable = errors.New("identity provider unavailable")
)

// Role classifies an account for admin access decisions.
type Role string

const (
	// RoleSuperAdmin has unrestricted admin access.
	RoleSuperAdmin Role = "super_admin"
	// RoleAdmin has standard admin access.
	RoleAdmin Role = "admin"
	// RoleModerator can act on content but not the admin surface.
	RoleModerator Role = "moderator"
	// RoleUser is the default role with no elevated access.
	RoleUser Role = "user"
)

// ParseRole maps a stored role string to a [Role]. Unknown strings map to
// RoleUser with ok=false; callers treating ok=false as non-admin fail closed.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleModerator, RoleUser:
		return Role(s), true
	default:
		return RoleUser, false
	}
}

// Identity describes the authenticated account a provider currently holds.
type Identity struct {
	UserID     string
	Identifier string
	Role       Role
}

// Provider is the remote role store the session authority consults.
//
// Implementations own the remote credential check and the authoritative role
// lookup. All methods honor ctx cancellation; network failures are reported
// as errors wrapping [ErrUnavailable], never as a default role.
type Provider interface {
	// Authenticate verifies the identifier+secret pair and establishes a
	// provider-side identity. It returns the account's user ID on success
	// and ErrInvalidCredential on rejection.
	Authenticate(ctx context.Context, identifier, secret string) (string, error)

	// CurrentIdentity returns the identity established by the last
	// successful Authenticate, or (nil, nil) when none is held.
	CurrentIdentity(ctx context.Context) (*Identity, error)

	// SignOut discards the provider-side identity.
	SignOut(ctx context.Context) error

	// QueryRole returns the authoritative role for the user ID. Unknown
	// users resolve to RoleUser; only transport failures return an error.
	QueryRole(ctx context.Context, userID string) (Role, error)
}
