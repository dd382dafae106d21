// Package claimcrypt seals short claim values (user IDs, role codes) with AES-256-GCM so
// they can travel inside a signed access token without being readable by the bearer.
//
// # Wire format
//
// A sealed value is the URL-safe, unpadded base64 encoding of:
//
//	nonce (12 bytes) | tag (16 bytes) | ciphertext
//
// Every call to [Cipher.Encrypt] draws a fresh nonce from crypto/rand.
//
// # What this package must NOT do
//
//   - Report why a value failed to open. Every failure is [ErrDecryption].
//   - Know anything about JWT structure or role semantics.
//   - Rotate or version keys.
package claimcrypt
