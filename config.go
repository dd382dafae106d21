package gateAuth

import (
	"runtime"
	"strings"
	"time"

	"github.com/MrEthical07/gateAuth/claimcrypt"
	"github.com/MrEthical07/gateAuth/password"
)

// Config defines a public type used by gateAuth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token          TokenConfig
	Claims         ClaimsConfig
	Password       PasswordConfig
	RateLimit      RateLimitConfig
	Audit          AuditConfig
	Metrics        MetricsConfig
	AdminPathGuard AdminPathGuardConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls access token signing. Tokens are always HS256.
type TokenConfig struct {
	Secret       []byte
	AccessTTL    time.Duration
	Issuer       string
	Audience     string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
}

/*
====================================
CLAIMS CONFIG
====================================
*/

// ClaimsConfig holds the AES-256 key that seals the user ID and role inside tokens.
// Key takes precedence over KeyBase64.
type ClaimsConfig struct {
	Key       []byte
	KeyBase64 string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by gateAuth APIs.
//
// Workers bounds concurrent derivations; zero means GOMAXPROCS.
type PasswordConfig struct {
	Iterations       int
	SaltLength       int
	MinPasswordBytes int
	MaxPasswordBytes int
	Workers          int
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig controls the fixed-window request limiter.
//
// Authenticated requests are keyed by token. Unauthenticated POSTs to one of
// LoginPaths are keyed by client address. Everything else passes unthrottled.
type RateLimitConfig struct {
	Enabled         bool
	MaxRequests     int
	Window          time.Duration
	CleanupInterval time.Duration
	Shards          int
	MaxTrackedIPs   int
	TrustProxy      bool
	LoginPaths      []string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by gateAuth APIs.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by gateAuth APIs.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// AdminPathGuardConfig requires an admin role for any request path containing Marker.
type AdminPathGuardConfig struct {
	Enabled bool
	Marker  string
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns production defaults. Token.Secret and the claim key have
// no default and must be supplied.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:    60 * time.Minute,
			Leeway:       0,
			MaxFutureIAT: 10 * time.Minute,
		},
		Password: PasswordConfig{
			Iterations:       password.DefaultIterations,
			SaltLength:       password.DefaultSaltLength,
			MinPasswordBytes: 0,
			MaxPasswordBytes: 1024,
			Workers:          0,
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			MaxRequests:     100,
			Window:          time.Minute,
			CleanupInterval: time.Minute,
			Shards:          32,
			MaxTrackedIPs:   32,
			TrustProxy:      false,
			LoginPaths:      []string{"/v1/auth/login"},
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		AdminPathGuard: AdminPathGuardConfig{
			Enabled: false,
			Marker:  "admin",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	out.Claims.Key = cloneBytes(cfg.Claims.Key)
	if cfg.RateLimit.LoginPaths != nil {
		out.RateLimit.LoginPaths = append([]string(nil), cfg.RateLimit.LoginPaths...)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks every field and returns the first problem as a *ConfigError.
// It does not mutate c.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) == 0 {
		return configError("Token.Secret", "required")
	}
	if len(c.Token.Secret) < 32 {
		return configError("Token.Secret", "must be at least 32 bytes")
	}
	if c.Token.AccessTTL <= 0 {
		return configError("Token.AccessTTL", "must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return configError("Token.Leeway", "must be between 0 and 2m")
	}
	if c.Token.MaxFutureIAT < 0 || c.Token.MaxFutureIAT > 24*time.Hour {
		return configError("Token.MaxFutureIAT", "must be between 0 and 24h")
	}

	// Claims
	if _, err := c.claimKey(); err != nil {
		return err
	}

	// Password
	if c.Password.Iterations < 1000 {
		return configError("Password.Iterations", "must be >= 1000")
	}
	if c.Password.SaltLength < 16 {
		return configError("Password.SaltLength", "must be >= 16")
	}
	if c.Password.MinPasswordBytes < 0 {
		return configError("Password.MinPasswordBytes", "must be >= 0")
	}
	if c.Password.MaxPasswordBytes <= 0 || c.Password.MaxPasswordBytes < c.Password.MinPasswordBytes {
		return configError("Password.MaxPasswordBytes", "must be > 0 and >= MinPasswordBytes")
	}
	if c.Password.Workers < 0 {
		return configError("Password.Workers", "must be >= 0")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxRequests <= 0 {
			return configError("RateLimit.MaxRequests", "must be > 0")
		}
		if c.RateLimit.Window <= 0 {
			return configError("RateLimit.Window", "must be > 0")
		}
		if c.RateLimit.CleanupInterval <= 0 {
			return configError("RateLimit.CleanupInterval", "must be > 0")
		}
		if c.RateLimit.Shards < 0 {
			return configError("RateLimit.Shards", "must be >= 0")
		}
		if c.RateLimit.MaxTrackedIPs < 0 {
			return configError("RateLimit.MaxTrackedIPs", "must be >= 0")
		}
		for _, p := range c.RateLimit.LoginPaths {
			if !strings.HasPrefix(p, "/") {
				return configError("RateLimit.LoginPaths", "paths must start with /")
			}
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return configError("Audit.BufferSize", "must be > 0 when audit is enabled")
	}

	if c.AdminPathGuard.Enabled && strings.TrimSpace(c.AdminPathGuard.Marker) == "" {
		return configError("AdminPathGuard.Marker", "required when guard is enabled")
	}

	return nil
}

func (c *Config) claimKey() ([]byte, error) {
	if len(c.Claims.Key) > 0 {
		if len(c.Claims.Key) != claimcrypt.KeySize {
			return nil, configError("Claims.Key", "must be exactly 32 bytes")
		}
		return c.Claims.Key, nil
	}
	if c.Claims.KeyBase64 == "" {
		return nil, configError("Claims.KeyBase64", "required")
	}
	key, err := claimcrypt.DecodeKey(c.Claims.KeyBase64)
	if err != nil {
		return nil, configError("Claims.KeyBase64", "must decode to exactly 32 bytes")
	}
	return key, nil
}

func (c *Config) passwordWorkers() int {
	if c.Password.Workers > 0 {
		return c.Password.Workers
	}
	return runtime.GOMAXPROCS(0)
}
