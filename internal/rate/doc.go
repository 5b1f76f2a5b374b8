// Package rate provides the Redis-backed sign-in throttle used by the
// admin session authority.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - admingate:throttle:signin: — per-identifier
//   - admingate:throttle:ip:     — per-client-IP (optional)
//
// # What this package must NOT do
//
//   - Decide what a rate-limit rejection looks like to a caller. Error
//     normalization belongs to the authority.
//   - Be imported outside the admingate module.
package rate
