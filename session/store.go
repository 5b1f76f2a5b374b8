package session

import (
	"context"
	"errors"
)

// ErrUnavailable is an exported constant or variable used by the admin session authority.
var ErrUnavailable = errors.New("session store unavailable")

// Store is the capability the authority uses to persist one session record
// per client context. Implementations hold exactly one record under a fixed
// storage key.
//
// Read returns (nil, nil) when no record exists or the stored blob is
// corrupt; errors are reserved for backend unavailability. Write merges the
// patch into the existing record, creating one when absent. Clear is
// idempotent.
type Store interface {
	Read(ctx context.Context) (*Record, error)
	Write(ctx context.Context, patch Patch) error
	Clear(ctx context.Context) error
}
