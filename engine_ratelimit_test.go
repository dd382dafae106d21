package gateAuth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newLimitedEngine(t *testing.T, max int, window time.Duration, mutate func(*Config)) *Engine {
	t.Helper()
	return newTestEngine(t, func(c *Config) {
		c.RateLimit.MaxRequests = max
		c.RateLimit.Window = window
		c.RateLimit.CleanupInterval = time.Hour
		if mutate != nil {
			mutate(c)
		}
	})
}

func request(method, target, remote, bearer string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	r.RemoteAddr = remote
	if bearer != "" {
		r.Header.Set("Authorization", "Bearer "+bearer)
	}
	return r
}

func TestCheckRequestTokenKey(t *testing.T) {
	e := newLimitedEngine(t, 2, time.Minute, nil)
	now := time.Unix(1_700_000_000, 0)

	for i, remote := range []string{"10.0.0.1:5000", "10.0.0.2:5000"} {
		d := e.checkRequestAt(request(http.MethodGet, "/v1/posts", remote, "tok-a"), now)
		if !d.Allowed || !d.Throttled || d.KeyKind != "token" {
			t.Fatalf("hit %d: unexpected decision %+v", i, d)
		}
	}

	d := e.checkRequestAt(request(http.MethodGet, "/v1/posts", "10.0.0.3:5000", "tok-a"), now.Add(10*time.Second))
	if d.Allowed {
		t.Fatal("expected third token request to be denied")
	}
	if d.RetryAfter != 50*time.Second {
		t.Fatalf("expected Retry-After 50s, got %v", d.RetryAfter)
	}

	entry, ok := e.rateLimiter.Entry("token:tok-a")
	if !ok || len(entry.IPs) != 2 || entry.IPs[0] != "10.0.0.1" || entry.IPs[1] != "10.0.0.2" {
		t.Fatalf("expected admitted client addresses recorded, got %+v", entry)
	}

	if other := e.checkRequestAt(request(http.MethodGet, "/v1/posts", "10.0.0.1:5000", "tok-b"), now); !other.Allowed {
		t.Fatal("expected a different token to have its own budget")
	}
}

func TestCheckRequestLoginPathByIP(t *testing.T) {
	e := newLimitedEngine(t, 1, time.Minute, nil)
	now := time.Now()

	if d := e.checkRequestAt(request(http.MethodPost, "/V1/Auth/Login", "203.0.113.5:1234", ""), now); !d.Allowed || d.KeyKind != "ip" {
		t.Fatalf("expected first login allowed on ip key, got %+v", d)
	}
	if d := e.checkRequestAt(request(http.MethodPost, "/v1/auth/login", "203.0.113.5:9999", ""), now); d.Allowed {
		t.Fatal("expected second login from same address denied regardless of path case or port")
	}
	if d := e.checkRequestAt(request(http.MethodPost, "/v1/auth/login", "203.0.113.6:1234", ""), now); !d.Allowed {
		t.Fatal("expected other address to have its own budget")
	}
}

func TestCheckRequestUnthrottledRequests(t *testing.T) {
	e := newLimitedEngine(t, 1, time.Minute, nil)
	now := time.Now()

	cases := []*http.Request{
		request(http.MethodGet, "/v1/auth/login", "203.0.113.5:1", ""),
		request(http.MethodPost, "/v1/auth/login/extra", "203.0.113.5:1", ""),
		request(http.MethodPost, "/v1/posts", "203.0.113.5:1", ""),
		request(http.MethodGet, "/health", "203.0.113.5:1", ""),
	}
	for i := 0; i < 3; i++ {
		for _, r := range cases {
			if d := e.checkRequestAt(r, now); !d.Allowed || d.Throttled {
				t.Fatalf("expected %s %s to pass unthrottled, got %+v", r.Method, r.URL.Path, d)
			}
		}
	}
	if e.rateLimiter.Len() != 0 {
		t.Fatalf("expected no limiter entries, got %d", e.rateLimiter.Len())
	}
}

func TestCheckRequestMalformedBearerFallsBackToLoginRule(t *testing.T) {
	e := newLimitedEngine(t, 1, time.Minute, nil)
	now := time.Now()

	r := request(http.MethodPost, "/v1/auth/login", "198.51.100.1:1", "")
	r.Header.Set("Authorization", "Bearer    ")
	if d := e.checkRequestAt(r, now); d.KeyKind != "ip" {
		t.Fatalf("expected whitespace bearer to count as no token, got %+v", d)
	}
}

func TestCheckRequestTrustProxy(t *testing.T) {
	e := newLimitedEngine(t, 1, time.Minute, func(c *Config) { c.RateLimit.TrustProxy = true })
	now := time.Now()

	r1 := request(http.MethodPost, "/v1/auth/login", "10.0.0.1:1", "")
	r1.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	r2 := request(http.MethodPost, "/v1/auth/login", "10.0.0.1:1", "")
	r2.Header.Set("X-Forwarded-For", "198.51.100.8")

	if !e.checkRequestAt(r1, now).Allowed || !e.checkRequestAt(r2, now).Allowed {
		t.Fatal("expected forwarded clients to be keyed separately")
	}
	if _, ok := e.rateLimiter.Entry("ip:198.51.100.7"); !ok {
		t.Fatal("expected first X-Forwarded-For entry to be the key")
	}
}

func TestCheckRequestForwardedAddressesBounded(t *testing.T) {
	e := newLimitedEngine(t, 1000, time.Minute, func(c *Config) {
		c.RateLimit.TrustProxy = true
		c.RateLimit.MaxTrackedIPs = 4
	})
	now := time.Now()

	for i := 0; i < 1500; i++ {
		r := request(http.MethodGet, "/v1/posts", "10.0.0.1:1", "not-a-jwt")
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.%d.%d", i/256, i%256))
		e.checkRequestAt(r, now)
	}

	entry, ok := e.rateLimiter.Entry("token:not-a-jwt")
	if !ok {
		t.Fatal("expected token entry")
	}
	if len(entry.IPs) != 4 {
		t.Fatalf("expected tracked addresses capped at 4, got %d", len(entry.IPs))
	}
}

func TestCheckRequestDisabled(t *testing.T) {
	e := newTestEngine(t, func(c *Config) { c.RateLimit.Enabled = false })

	for i := 0; i < 200; i++ {
		if d := e.CheckRequest(request(http.MethodGet, "/", "1.1.1.1:1", "tok")); !d.Allowed {
			t.Fatal("expected disabled limiter to allow everything")
		}
	}
}

func TestCheckRequestMetricsAndAudit(t *testing.T) {
	sink := NewChannelSink(8)
	cfg := validTestConfig()
	cfg.Metrics.Enabled = true
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 8
	cfg.RateLimit.MaxRequests = 2
	e, err := New().WithConfig(cfg).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer e.Close()

	now := time.Now()
	e.checkRequestAt(request(http.MethodGet, "/v1/posts", "10.1.1.1:1", "secret-token"), now)
	e.checkRequestAt(request(http.MethodGet, "/v1/posts", "10.1.1.2:1", "secret-token"), now)
	e.checkRequestAt(request(http.MethodGet, "/v1/posts", "10.1.1.3:1", "secret-token"), now)

	snap := e.MetricsSnapshot()
	if snap.Counters[MetricRateAllowed] != 2 || snap.Counters[MetricRateDenied] != 1 {
		t.Fatalf("unexpected rate counters %v", snap.Counters)
	}

	select {
	case ev := <-sink.Events():
		if ev.EventType != auditEventRateLimited || ev.Key != "token" || ev.Error != string(auditErrRateLimited) {
			t.Fatalf("unexpected audit event %+v", ev)
		}
		if len(ev.IPs) != 2 {
			t.Fatalf("expected observed IPs on event, got %v", ev.IPs)
		}
		if ev.Path != "/v1/posts" || ev.Method != http.MethodGet || ev.IP != "10.1.1.3" {
			t.Fatalf("unexpected request fields %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected rate_limited audit event")
	}
}

func TestRetryAfterRounding(t *testing.T) {
	now := time.Unix(100, 0)
	cases := []struct {
		reset time.Time
		want  time.Duration
	}{
		{now.Add(1500 * time.Millisecond), 2 * time.Second},
		{now.Add(time.Second), time.Second},
		{now, time.Second},
		{now.Add(-time.Second), time.Second},
	}
	for _, tc := range cases {
		if got := retryAfter(tc.reset, now); got != tc.want {
			t.Fatalf("retryAfter(%v) = %v, want %v", tc.reset.Sub(now), got, tc.want)
		}
	}
}

func TestSweeperEvictsThroughEngine(t *testing.T) {
	e := newTestEngine(t, func(c *Config) {
		c.RateLimit.Window = 10 * time.Millisecond
		c.RateLimit.CleanupInterval = 10 * time.Millisecond
	})

	e.CheckRequest(request(http.MethodGet, "/", "1.1.1.1:1", "tok"))

	deadline := time.Now().Add(2 * time.Second)
	for e.rateLimiter.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if e.rateLimiter.Len() != 0 {
		t.Fatal("expected sweeper to evict stale entry")
	}
	deadline = time.Now().Add(time.Second)
	for e.MetricsSnapshot().Counters[MetricRateSweepEvicted] == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if e.MetricsSnapshot().Counters[MetricRateSweepEvicted] != 1 {
		t.Fatal("expected sweep metric to record the eviction")
	}
}
