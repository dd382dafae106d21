package internaldefs

import (
	gateAuth "github.com/MrEthical07/gateAuth"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   gateAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   gateAuth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter fed from Engine.AuditDropped.
const AuditDroppedName = "gateauth_audit_dropped_total"

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: gateAuth.MetricRateAllowed, Name: "gateauth_rate_allowed_total", Help: "Requests admitted by the rate limiter."},
	{ID: gateAuth.MetricRateDenied, Name: "gateauth_rate_denied_total", Help: "Requests rejected with 429."},
	{ID: gateAuth.MetricRateSweepEvicted, Name: "gateauth_rate_sweep_evicted_total", Help: "Stale limiter entries removed by the sweeper."},
	{ID: gateAuth.MetricAuthSuccess, Name: "gateauth_auth_success_total", Help: "Access tokens that verified and opened."},
	{ID: gateAuth.MetricAuthFailure, Name: "gateauth_auth_failure_total", Help: "Access tokens rejected as invalid."},
	{ID: gateAuth.MetricAuthMissingToken, Name: "gateauth_auth_missing_token_total", Help: "Requests without a usable bearer token."},
	{ID: gateAuth.MetricAuthRoleUnreadable, Name: "gateauth_auth_role_unreadable_total", Help: "Valid tokens whose role claim could not be opened."},
	{ID: gateAuth.MetricForbidden, Name: "gateauth_forbidden_total", Help: "Role checks that denied access."},
	{ID: gateAuth.MetricTokenIssued, Name: "gateauth_token_issued_total", Help: "Access tokens signed."},
	{ID: gateAuth.MetricPasswordHashed, Name: "gateauth_password_hashed_total", Help: "Password hashes produced."},
	{ID: gateAuth.MetricPasswordVerifySuccess, Name: "gateauth_password_verify_success_total", Help: "Password verifications that matched."},
	{ID: gateAuth.MetricPasswordVerifyFailure, Name: "gateauth_password_verify_failure_total", Help: "Password verifications that did not match."},
	{ID: gateAuth.MetricLoginSuccess, Name: "gateauth_login_success_total", Help: "Successful logins."},
	{ID: gateAuth.MetricLoginFailure, Name: "gateauth_login_failure_total", Help: "Logins rejected with invalid credentials."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: gateAuth.MetricAuthenticateLatency, Name: "gateauth_authenticate_latency_seconds", Help: "Authenticate latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The engine keeps
// one extra overflow bucket after the last bound.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, overflow last, for exporters that
// cannot carry an le label.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
