package rate

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

const (
	defaultShards        = 32
	defaultMaxTrackedIPs = 32
)

// Config holds rate limiter tuning parameters.
type Config struct {
	MaxRequests     int
	Window          time.Duration
	CleanupInterval time.Duration
	Shards          int
	// MaxTrackedIPs caps the addresses kept per key. Zero means 32.
	MaxTrackedIPs   int
}

// Entry is a snapshot of one key's window state.
type Entry struct {
	Key         string
	Count       int
	WindowStart time.Time
	IPs         []string
}

// Decision is the outcome of a single Check.
type Decision struct {
	Allowed   bool
	Count     int
	Remaining int
	ResetAt   time.Time
}

type entry struct {
	count       int
	windowStart time.Time
	ips         []string
	seen        map[string]struct{}
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Limiter enforces per-key fixed-window limits in process memory.
type Limiter struct {
	config Config
	shards []*shard

	mu        sync.Mutex
	started   bool
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	onSweep func(evicted int)
}

// New creates a [Limiter]. The sweeper is not running until [Limiter.Start] is called.
func New(cfg Config) (*Limiter, error) {
	if cfg.MaxRequests <= 0 {
		return nil, fmt.Errorf("%w: MaxRequests must be > 0", ErrInvalidConfig)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("%w: Window must be > 0", ErrInvalidConfig)
	}
	if cfg.CleanupInterval <= 0 {
		return nil, fmt.Errorf("%w: CleanupInterval must be > 0", ErrInvalidConfig)
	}
	if cfg.MaxTrackedIPs < 0 {
		return nil, fmt.Errorf("%w: MaxTrackedIPs must be >= 0", ErrInvalidConfig)
	}
	if cfg.Shards <= 0 {
		cfg.Shards = defaultShards
	}
	if cfg.MaxTrackedIPs == 0 {
		cfg.MaxTrackedIPs = defaultMaxTrackedIPs
	}

	shards := make([]*shard, cfg.Shards)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]*entry)}
	}

	return &Limiter{
		config: cfg,
		shards: shards,
		stop:   make(chan struct{}),
	}, nil
}

// OnSweep registers a callback invoked after every sweeper pass with the number of
// evicted entries. It must be called before Start.
func (l *Limiter) OnSweep(fn func(evicted int)) {
	l.onSweep = fn
}

// Config returns the effective configuration.
func (l *Limiter) Config() Config {
	return l.config
}

func (l *Limiter) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return l.shards[h.Sum32()%uint32(len(l.shards))]
}

// Check records one hit for key at now and reports whether it is within budget.
// ip is appended to the entry's address list when non-empty, not yet seen, the hit
// is within budget and fewer than MaxTrackedIPs addresses are stored.
func (l *Limiter) Check(key, ip string, now time.Time) Decision {
	s := l.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	switch {
	case !ok:
		e = &entry{count: 1, windowStart: now}
		s.entries[key] = e
	case now.Sub(e.windowStart) > l.config.Window:
		e.count = 1
		e.windowStart = now
	default:
		e.count++
	}

	if ip != "" && e.count <= l.config.MaxRequests {
		e.track(ip, l.config.MaxTrackedIPs)
	}

	remaining := l.config.MaxRequests - e.count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   e.count <= l.config.MaxRequests,
		Count:     e.count,
		Remaining: remaining,
		ResetAt:   e.windowStart.Add(l.config.Window),
	}
}

func (e *entry) track(ip string, limit int) {
	if len(e.ips) >= limit {
		return
	}
	if _, ok := e.seen[ip]; ok {
		return
	}
	if e.seen == nil {
		e.seen = make(map[string]struct{}, 4)
	}
	e.seen[ip] = struct{}{}
	e.ips = append(e.ips, ip)
}

// Entry returns a copy of the state stored for key.
func (l *Limiter) Entry(key string) (Entry, bool) {
	s := l.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Key:         key,
		Count:       e.count,
		WindowStart: e.windowStart,
		IPs:         append([]string(nil), e.ips...),
	}, true
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Sweep removes entries whose window started more than 2*Window before now and
// returns how many were removed. Shards are swept one at a time.
func (l *Limiter) Sweep(now time.Time) int {
	maxAge := 2 * l.config.Window
	evicted := 0
	for _, s := range l.shards {
		s.mu.Lock()
		for key, e := range s.entries {
			if now.Sub(e.windowStart) > maxAge {
				delete(s.entries, key)
				evicted++
			}
		}
		s.mu.Unlock()
	}
	return evicted
}

// Start launches the sweeper. It runs every CleanupInterval until ctx is canceled or
// Close is called. Calling Start more than once has no effect.
func (l *Limiter) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.started = true

	l.wg.Add(1)
	go l.run(ctx)
}

func (l *Limiter) run(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			evicted := l.Sweep(now)
			if l.onSweep != nil {
				l.onSweep(evicted)
			}
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		}
	}
}

// Close stops the sweeper and waits for it to exit. It is safe to call more than once.
func (l *Limiter) Close() {
	if l == nil {
		return
	}
	l.closeOnce.Do(func() {
		close(l.stop)
		l.wg.Wait()
	})
}
