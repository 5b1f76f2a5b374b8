// Package middleware exposes HTTP adapters that gate handlers behind the
// admin session authority.
//
// # Guards
//
//   - [Guard] — net/http middleware; wraps any http.Handler.
//   - [GinGuard] — the same check as a gin.HandlerFunc.
//
// Each guard attaches the caller's IP to the request context and asks the
// Authority whether the current session grants admin access. Browsers are
// redirected to the sign-in page; JSON clients get a 401.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Authority calls. It does NOT
// implement access logic itself — all decisions are delegated to
// Authority.IsAdmin.
//
// # What this package must NOT do
//
//   - Read or write session records directly (the Authority handles I/O).
//   - Make access decisions beyond pass/reject from Authority.IsAdmin.
package middleware
