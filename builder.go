package gateAuth

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/MrEthical07/gateAuth/claimcrypt"
	"github.com/MrEthical07/gateAuth/internal/audit"
	"github.com/MrEthical07/gateAuth/internal/rate"
	"github.com/MrEthical07/gateAuth/jwt"
	"github.com/MrEthical07/gateAuth/password"
	"golang.org/x/sync/semaphore"
	xrate "golang.org/x/time/rate"
)

// Builder defines a public type used by gateAuth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config    Config
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The value is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithLogger sets the structured logger. The default discards all output.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination. The sink is only used when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles an [Engine]. Every invalid
// field yields a *ConfigError. The limiter sweeper is started; callers must
// call [Engine.Close] on shutdown. A Builder can be used only once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// -------- CLAIM CIPHER --------
	key, err := cfg.claimKey()
	if err != nil {
		return nil, err
	}
	claims, err := claimcrypt.New(key)
	if err != nil {
		return nil, configError("Claims.Key", err.Error())
	}

	// -------- PASSWORD HASHER --------
	hasher, err := password.NewPBKDF2(password.Config{
		Iterations:       cfg.Password.Iterations,
		SaltLength:       cfg.Password.SaltLength,
		MinPasswordBytes: cfg.Password.MinPasswordBytes,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, configError("Password", err.Error())
	}
	// Login on an unknown identifier verifies against this so timing matches a real account.
	dummyHash, err := hasher.Hash(dummyPassword(cfg.Password))
	if err != nil {
		return nil, err
	}

	// -------- TOKEN MANAGER --------
	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:    cfg.Token.AccessTTL,
		Secret:       cloneBytes(cfg.Token.Secret),
		Issuer:       cfg.Token.Issuer,
		Audience:     cfg.Token.Audience,
		Leeway:       cfg.Token.Leeway,
		MaxFutureIAT: cfg.Token.MaxFutureIAT,
	})
	if err != nil {
		return nil, configError("Token", err.Error())
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		logger:       logger,
		claims:       claims,
		passwordHash: hasher,
		dummyHash:    dummyHash,
		hashGate:     semaphore.NewWeighted(int64(cfg.passwordWorkers())),
		jwtManager:   jm,
		metrics:      NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		denyLog: xrate.Sometimes{Interval: denyLogInterval},
	}
	engine.loginPaths = normalizeLoginPaths(cfg.RateLimit.LoginPaths)

	// -------- RATE LIMITER --------
	if cfg.RateLimit.Enabled {
		limiter, err := rate.New(rate.Config{
			MaxRequests:     cfg.RateLimit.MaxRequests,
			Window:          cfg.RateLimit.Window,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
			Shards:          cfg.RateLimit.Shards,
			MaxTrackedIPs:   cfg.RateLimit.MaxTrackedIPs,
		})
		if err != nil {
			engine.audit.Close()
			return nil, configError("RateLimit", err.Error())
		}
		limiter.OnSweep(engine.onSweep)
		engine.rateLimiter = limiter
		engine.startSweeper()
	}

	b.built = true

	logger.Info("gateauth engine ready",
		"rate_limit", cfg.RateLimit.Enabled,
		"rate_max", cfg.RateLimit.MaxRequests,
		"rate_window", cfg.RateLimit.Window,
		"password_iterations", cfg.Password.Iterations,
		"password_workers", cfg.passwordWorkers(),
		"audit", cfg.Audit.Enabled,
		"metrics", cfg.Metrics.Enabled,
	)

	return engine, nil
}

func dummyPassword(cfg PasswordConfig) string {
	n := 16
	if n < cfg.MinPasswordBytes {
		n = cfg.MinPasswordBytes
	}
	if n > cfg.MaxPasswordBytes {
		n = cfg.MaxPasswordBytes
	}
	return strings.Repeat("g", n)
}
