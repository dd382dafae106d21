package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	mrand "math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	gateAuth "github.com/MrEthical07/gateAuth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		users       = flag.Int("users", 10000, "number of distinct users (tokens) to issue")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (authenticate + rate check)")
		maxRequests = flag.Int("max", 100, "rate limit budget per token per window")
		window      = flag.Duration("window", time.Minute, "rate limit window")
		audit       = flag.Bool("audit", false, "stream audit events to redis")
		redisAddr   = flag.String("redis-addr", "", "redis address for -audit; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	cfg := gateAuth.DefaultConfig()
	cfg.Token.Secret = randomBytes(32)
	cfg.Claims.Key = randomBytes(32)
	cfg.RateLimit.MaxRequests = *maxRequests
	cfg.RateLimit.Window = *window
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	builder := gateAuth.New()
	if *audit {
		client, cleanup, err := auditClient(*redisAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "audit redis: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		cfg.Audit.Enabled = true
		builder.WithAuditSink(gateAuth.NewRedisStreamSink(client, gateAuth.RedisStreamConfig{}, nil))
	}

	engine, err := builder.WithConfig(cfg).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	roles := []gateAuth.Role{gateAuth.RoleUser, gateAuth.RolePublisher, gateAuth.RoleAdmin, gateAuth.RoleSuperAdmin}
	tokens := make([]string, *users)
	fmt.Printf("issuing %d tokens...\n", *users)
	startIssue := time.Now()
	for i := range tokens {
		tok, err := engine.IssueToken(ctx, fmt.Sprintf("%d", i+1), roles[i%len(roles)])
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		tokens[i] = tok
	}
	fmt.Printf("issued in %s\n", time.Since(startIssue).Round(time.Millisecond))

	authStats := runPhase(*ops, *concurrency, 7919, func(r *mrand.Rand) bool {
		_, err := engine.Authenticate(ctx, tokens[r.Intn(len(tokens))])
		return err == nil
	})
	rateStats := runPhase(*ops, *concurrency, 6151, func(r *mrand.Rand) bool {
		req := httptest.NewRequest(http.MethodGet, "/v1/posts", nil)
		req.RemoteAddr = fmt.Sprintf("10.0.%d.%d:4000", r.Intn(256), r.Intn(256))
		req.Header.Set("Authorization", "Bearer "+tokens[r.Intn(len(tokens))])
		return engine.CheckRequest(req).Allowed
	})

	fmt.Println("---- results ----")
	printStats("authenticate", authStats)
	printStats("rate-check", rateStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("rate: allowed=%d denied=%d audit_dropped=%d\n",
		snap.Counters[gateAuth.MetricRateAllowed],
		snap.Counters[gateAuth.MetricRateDenied],
		engine.AuditDropped(),
	)
}

func auditClient(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// runPhase spreads ops calls of op over concurrency workers. op reports
// whether the call counted as a success.
func runPhase(ops, concurrency int, seed int64, op func(*mrand.Rand) bool) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := mrand.New(mrand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				ok := op(r)
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
