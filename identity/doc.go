// Package identity defines the remote role store the admin session
// authority consults, and two implementations of it.
//
// # Providers
//
// [Provider] is the integration point: it owns credential verification,
// the provider-side identity, and the authoritative role lookup.
// [Postgres] backs these with a pgx connection pool and argon2id secret
// hashes; [Memory] is an in-process provider for examples and tests.
//
// # Error contract
//
// Authenticate returns [ErrInvalidCredential] for unknown identifiers and
// wrong secrets alike. [ErrUnavailable] wraps transport failures. QueryRole
// never invents an error for an unknown user; it resolves to RoleUser.
//
// # What this package must NOT do
//
//   - Decide whether a role grants admin access. That policy belongs to
//     the authority's configuration.
//   - Cache role lookups. The authority owns the refresh interval.
package identity
