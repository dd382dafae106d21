// Package server assembles the demo photo-sharing API on top of a gateAuth
// engine: a chi router with the rate limit, authentication and role
// middleware, an in-memory account store for logins, the Prometheus metrics
// endpoint and process lifecycle with graceful shutdown.
package server
