package gateAuth

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	rateKeyToken = "token"
	rateKeyIP    = "ip"

	denyLogInterval = 10 * time.Second
)

// CheckRequest applies the rate limiter to r.
//
// Requests with a bearer token count against "token:<token>". Requests without
// one count against "ip:<client address>" only when they are a POST to a
// configured login path. Anything else is not throttled.
func (e *Engine) CheckRequest(r *http.Request) RateDecision {
	return e.checkRequestAt(r, time.Now())
}

func (e *Engine) checkRequestAt(r *http.Request, now time.Time) RateDecision {
	if e == nil || e.rateLimiter == nil || r == nil {
		return RateDecision{Allowed: true}
	}

	clientIP := ClientIP(r, e.config.RateLimit.TrustProxy)

	var key, kind, seenIP string
	if token, ok := BearerToken(r.Header); ok {
		kind = rateKeyToken
		key = rateKeyToken + ":" + token
		seenIP = clientIP
	} else if e.isLoginRequest(r) {
		kind = rateKeyIP
		key = rateKeyIP + ":" + clientIP
	} else {
		return RateDecision{Allowed: true}
	}

	d := e.rateLimiter.Check(key, seenIP, now)
	out := RateDecision{
		Allowed:   d.Allowed,
		Throttled: true,
		KeyKind:   kind,
		Limit:     e.config.RateLimit.MaxRequests,
		Remaining: d.Remaining,
		ResetAt:   d.ResetAt,
	}

	if d.Allowed {
		e.metricInc(MetricRateAllowed)
		return out
	}

	out.RetryAfter = retryAfter(d.ResetAt, now)
	e.metricInc(MetricRateDenied)
	e.denyLog.Do(func() {
		e.logger.Warn("rate limit exceeded",
			"key_kind", kind,
			"client_ip", clientIP,
			"method", r.Method,
			"path", r.URL.Path,
			"count", d.Count,
			"limit", out.Limit,
		)
	})

	event := AuditEvent{
		EventType: auditEventRateLimited,
		IP:        clientIP,
		Method:    r.Method,
		Path:      r.URL.Path,
		Key:       kind,
	}
	if entry, ok := e.rateLimiter.Entry(key); ok {
		event.IPs = entry.IPs
	}
	e.emitAudit(r.Context(), event, ErrRateLimited)

	return out
}

func (e *Engine) isLoginRequest(r *http.Request) bool {
	if r.Method != http.MethodPost || len(e.loginPaths) == 0 {
		return false
	}
	_, ok := e.loginPaths[strings.ToLower(r.URL.Path)]
	return ok
}

func normalizeLoginPaths(paths []string) map[string]struct{} {
	out := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out[strings.ToLower(p)] = struct{}{}
	}
	return out
}

// retryAfter rounds the time left in the window up to whole seconds, minimum one.
func retryAfter(resetAt, now time.Time) time.Duration {
	left := resetAt.Sub(now)
	secs := math.Ceil(left.Seconds())
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

func (e *Engine) startSweeper() {
	ctx, cancel := context.WithCancel(context.Background())
	e.stopSweeper = cancel
	e.rateLimiter.Start(ctx)
	e.logger.Info("rate limit sweeper started",
		"interval", e.config.RateLimit.CleanupInterval,
		"max_age", 2*e.config.RateLimit.Window,
	)
}

func (e *Engine) onSweep(evicted int) {
	if evicted <= 0 {
		return
	}
	if e.metrics != nil {
		e.metrics.Add(MetricRateSweepEvicted, uint64(evicted))
	}
	e.logger.Debug("rate limit sweep", "evicted", evicted, "tracked", e.rateLimiter.Len())
}
