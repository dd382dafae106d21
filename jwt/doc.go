// Package jwt issues and verifies HS256 access tokens whose payload carries sealed
// (already encrypted) user ID and role claims.
//
// Only one algorithm and one secret are ever accepted. Tokens with "none", any other HMAC
// width, or an asymmetric algorithm are rejected before the signature is inspected.
package jwt
