// Package admingate provides a fail-closed admin session authority: a cached
// session record, an identity provider for authoritative role checks, and a
// small surface for answering "is the current session an admin" cheaply and
// safely.
//
// The package is designed for concurrent server workloads: Authority methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// admingate is the public surface. It exposes [Authority], [Builder],
// [Config], and value types (SessionInfo, MetricsSnapshot, AuditEvent). The
// session cache lives in the session package, identity integration in the
// identity package, and the sign-in throttle under internal/ where it is
// never exported.
//
// # Fail-closed contract
//
// Every access question resolves to denial when the answer cannot be proven:
// unreadable or corrupt session records read as absent, a failed role
// check clears the session the same as a revoked one, and expired
// sessions are cleared on first observation.
//
// # What this package must NOT do
//
//   - Expose Redis clients, store internals, or encoding details in its
//     public API.
//   - Report different errors for unknown identifiers and wrong secrets.
//   - Perform provider I/O from SessionInfo; it is a pure cache read.
package admingate
