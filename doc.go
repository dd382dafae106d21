// Package gateAuth provides the trust and access core of an HTTP backend: sealed
// JWT claims, PBKDF2 password hashing, an in-memory request rate limiter and
// role-based authorization.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// gateAuth is the public surface. It exposes [Engine], [Builder], [Config], [Principal],
// [Role] and value types (MetricsSnapshot, RateDecision, SecurityReport). Claim sealing
// lives in claimcrypt, hashing in password, token signing in jwt. Rate-limit storage and
// audit dispatch live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Expose limiter storage or cipher keys in its public API.
//   - Perform network I/O outside of a caller-supplied audit sink.
//   - Import any sub-package that re-imports gateAuth (no import cycles).
//
// # Performance contract
//
// Authenticate and CheckRequest are the hot path. Neither blocks on anything but a
// shard mutex. Password hashing runs behind a bounded worker gate and honors ctx.
package gateAuth
