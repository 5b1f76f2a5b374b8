// Package password derives and verifies argon2id secret hashes in PHC
// string format.
//
// It is used by the Postgres identity provider to check stored admin
// credentials. Verification is constant-time over the derived key, and
// NeedsUpgrade lets a caller detect hashes produced with parameters weaker
// than the current configuration.
//
// # What this package must NOT do
//
//   - It must not decide whether a credential mismatch is reported to a
//     caller. Error normalization belongs to the identity provider.
//   - It must not log secrets or hashes.
package password
