// Package session provides the persisted admin session record, its JSON
// encoding, and the pluggable stores that hold it.
//
// # Single-record stores
//
// Every [Store] implementation persists exactly one [Record] under a fixed
// storage key — the analogue of per-context browser storage in the original
// admin console. Writes are partial ([Patch]) and merge under last-write-wins;
// there is one effective writer per client context, so no stronger discipline
// is needed.
//
// # Lazy expiry
//
// Stores never decide whether a session is still valid. Readers apply
// [Record.Expired] against their own clock; store TTLs only bound the memory
// held by abandoned blobs. A malformed blob always reads as absent, never as
// an error.
//
// # What this package must NOT do
//
//   - Import the root package or identity (no upward imports).
//   - Perform role checks or any network round-trip beyond its own backend.
//   - Surface storage corruption to callers as anything but an absent record.
package session
