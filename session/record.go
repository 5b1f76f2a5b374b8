package session

import (
	"encoding/json"
	"time"
)

// DefaultStorageKey is the fixed key under which the session blob is
// persisted when the caller does not supply one.
const DefaultStorageKey = "admingate:session"

// Record is the persisted admin session state for one client context.
// It is stored as a single JSON blob under a fixed storage key.
//
// Readers must treat a record whose ExpiresAt has passed as unauthenticated
// regardless of the Authenticated flag; expiry is lazy and no store runs a
// background sweep on behalf of readers.
type Record struct {
	Authenticated   bool   `json:"authenticated"`
	UserID          string `json:"user_id,omitempty"`
	ExpiresAt       int64  `json:"expires_at,omitempty"`
	LastRoleCheckAt int64  `json:"last_role_check_at,omitempty"`
}

// Expired reports whether the record's absolute expiry has passed at now.
// A nil record counts as expired.
func (r *Record) Expired(now time.Time) bool {
	if r == nil {
		return true
	}
	return r.ExpiresAt != 0 && now.Unix() > r.ExpiresAt
}

// TimeRemaining returns the duration until expiry, clamped at zero.
func (r *Record) TimeRemaining(now time.Time) time.Duration {
	if r == nil || r.ExpiresAt == 0 {
		return 0
	}
	remaining := time.Unix(r.ExpiresAt, 0).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Patch is a partial record update. Nil fields are left untouched by
// [Store.Write]; set fields overwrite the stored value.
type Patch struct {
	Authenticated   *bool
	UserID          *string
	ExpiresAt       *int64
	LastRoleCheckAt *int64
}

// AsPatch converts a full record into a patch that sets every field.
func (r Record) AsPatch() Patch {
	return Patch{
		Authenticated:   &r.Authenticated,
		UserID:          &r.UserID,
		ExpiresAt:       &r.ExpiresAt,
		LastRoleCheckAt: &r.LastRoleCheckAt,
	}
}

// Merge applies a patch on top of a base record. A nil base starts from the
// zero record. Last write wins; there is one writer per client context so no
// stronger guarantee is needed.
func Merge(base *Record, patch Patch) Record {
	var out Record
	if base != nil {
		out = *base
	}
	if patch.Authenticated != nil {
		out.Authenticated = *patch.Authenticated
	}
	if patch.UserID != nil {
		out.UserID = *patch.UserID
	}
	if patch.ExpiresAt != nil {
		out.ExpiresAt = *patch.ExpiresAt
	}
	if patch.LastRoleCheckAt != nil {
		out.LastRoleCheckAt = *patch.LastRoleCheckAt
	}
	return out
}

// Encode serializes a record to its stored JSON form.
func Encode(r *Record) ([]byte, error) {
	return json.Marshal(r)
}

// Decode parses a stored blob. Malformed blobs report ok == false; callers
// must treat them as an absent record, never as an error.
func Decode(data []byte) (*Record, bool) {
	if len(data) == 0 {
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}

	return &rec, true
}
