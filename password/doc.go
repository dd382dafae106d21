// Package password implements salted PBKDF2-HMAC-SHA512 password hashing and
// constant-time verification.
//
// # Output format
//
// Hashes are encoded as three dot-separated segments:
//
//	<iterations>.<salt, std base64>.<derived key, std base64>
//
// The iteration count travels with each hash, so raising [Config.Iterations] never breaks
// verification of older hashes. [PBKDF2.NeedsUpgrade] reports hashes produced with fewer
// iterations than currently configured so callers can re-hash after a successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Surface parse errors from Verify. A malformed hash is just a non-match.
//   - Log plaintext passwords or hash material.
package password
