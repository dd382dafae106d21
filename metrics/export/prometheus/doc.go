// Package prometheus exposes gateAuth engine metrics through client_golang.
//
// [Collector] implements prometheus.Collector by reading Engine.MetricsSnapshot
// on every scrape. Counter names are prefixed gateauth_ and end in _total; the
// Authenticate latency histogram is gateauth_authenticate_latency_seconds.
//
// The collector is never registered globally. Register it with your own
// registry or use [Handler], which builds a private one.
package prometheus
