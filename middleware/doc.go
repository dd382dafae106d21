// Package middleware exposes net/http adapters that put gateAuth.Engine in front
// of a handler chain.
//
// # Chain
//
//   - [RateLimit]: Engine.CheckRequest; 429 with Retry-After on deny.
//   - [Authenticate]: bearer extraction and Engine.Authenticate; stores the principal.
//   - [RequireRoles]: Engine.Authorize against the stored principal.
//   - [AdminPaths]: requires an admin role on any URL containing the configured marker.
//
// Error responses are JSON objects of the form {"type":"error","msg":"..."}.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT implement
// authentication logic itself; every decision is delegated to the Engine.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Leak internal error causes into response bodies.
package middleware
