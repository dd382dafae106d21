// Package rate implements the in-memory fixed-window request limiter used by the
// gateway middleware.
//
// # Window semantics
//
// Each key owns a counter and a window start. The first hit opens a window with
// count 1. A hit arriving more than Window after the window start resets the
// counter to 1; any other hit increments it and is denied once the count exceeds
// MaxRequests. The window start is never moved by in-window hits, so a client
// hitting a boundary may pass up to 2*MaxRequests within one Window.
//
// Key prefixes used by the engine:
//   - token: authenticated requests, keyed by bearer token
//   - ip:    unauthenticated login attempts, keyed by client address
//
// # Storage
//
// Entries live in a fixed number of shards, each guarded by its own mutex. Keys are
// routed by FNV-1a hash. Check-and-increment for one key runs entirely under its
// shard lock. A sweeper goroutine removes entries idle for more than 2*Window.
//
// Each entry also keeps the distinct client addresses seen on admitted hits, in
// arrival order, up to MaxTrackedIPs. Later addresses are not recorded.
//
// # What this package must NOT do
//
//   - Share state across processes.
//   - Decide which requests are throttled (the engine derives keys).
//   - Be imported outside the gateAuth module.
package rate
