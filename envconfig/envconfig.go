package envconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	gateAuth "github.com/MrEthical07/gateAuth"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvConfigPath      = "GATEAUTH_CONFIG"
	EnvAccessSecret    = "JWT_ACCESS_SECRET"
	EnvEncryptionKey   = "ENCRYPTION_SECRET"
	EnvAccessTTL       = "JWT_ACCESS_TOKEN_EXPIRES_IN"
	EnvRateMax         = "RATE_LIMIT_MAX"
	EnvRateWindowMS    = "RATE_LIMIT_WINDOW_MS"
	EnvRateCleanupMS   = "RATE_LIMIT_CLEANUP_MS"
	EnvTrustProxy      = "TRUST_PROXY"
	EnvLoginPaths      = "RATE_LIMIT_LOGIN_PATHS"
	EnvPasswordIter    = "PASSWORD_ITERATIONS"
	EnvDebugMode       = "DEBUG_MODE"
	EnvPort            = "PORT"
	EnvRedisURL        = "REDIS_URL"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	defaultPort        = "3000"
	defaultLogFormat   = "json"
	defaultEnvFileName = ".env"
)

// Settings is everything a gateAuth server process needs at startup.
type Settings struct {
	Engine    gateAuth.Config
	Port      string
	RedisURL  string
	Debug     bool
	LogLevel  slog.Level
	LogFormat string
}

// Options controls where Load looks. The zero value reads GATEAUTH_CONFIG, an
// optional ./.env and the process environment.
type Options struct {
	// ConfigPath overrides GATEAUTH_CONFIG.
	ConfigPath string
	// EnvFiles are dotenv files to read. Missing files are skipped.
	EnvFiles []string
	// Lookup replaces os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Load builds Settings. The returned Engine config has not been validated
// beyond what parsing needs; Builder.Build does that.
func Load(opts Options) (*Settings, error) {
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	files := opts.EnvFiles
	if files == nil {
		files = []string{defaultEnvFileName}
	}
	dotenv, err := readDotenv(files)
	if err != nil {
		return nil, err
	}
	env := layered{primary: lookup, fallback: dotenv}

	s := &Settings{
		Engine:    gateAuth.DefaultConfig(),
		Port:      defaultPort,
		LogLevel:  slog.LevelInfo,
		LogFormat: defaultLogFormat,
	}

	path := opts.ConfigPath
	if path == "" {
		path, _ = env.get(EnvConfigPath)
	}
	if path != "" {
		fc, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := fc.apply(s); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(s, env); err != nil {
		return nil, err
	}
	return s, nil
}

type layered struct {
	primary  func(string) (string, bool)
	fallback map[string]string
}

func (l layered) get(key string) (string, bool) {
	if v, ok := l.primary(key); ok {
		return v, true
	}
	v, ok := l.fallback[key]
	return v, ok
}

func readDotenv(files []string) (map[string]string, error) {
	out := map[string]string{}
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vals {
			if _, seen := out[k]; !seen {
				out[k] = v
			}
		}
	}
	return out, nil
}

func applyEnv(s *Settings, env layered) error {
	secret, ok := env.get(EnvAccessSecret)
	if !ok || strings.TrimSpace(secret) == "" {
		return configErr(EnvAccessSecret, "required")
	}
	s.Engine.Token.Secret = []byte(secret)

	key, ok := env.get(EnvEncryptionKey)
	if !ok || strings.TrimSpace(key) == "" {
		return configErr(EnvEncryptionKey, "required")
	}
	s.Engine.Claims.KeyBase64 = strings.TrimSpace(key)
	s.Engine.Claims.Key = nil

	if err := intVar(env, EnvAccessTTL, func(n int) error {
		if n <= 0 {
			return errors.New("must be > 0 minutes")
		}
		d, err := scaleDuration(n, time.Minute)
		s.Engine.Token.AccessTTL = d
		return err
	}); err != nil {
		return err
	}
	if err := intVar(env, EnvRateMax, func(n int) error {
		s.Engine.RateLimit.MaxRequests = n
		return nil
	}); err != nil {
		return err
	}
	if err := intVar(env, EnvRateWindowMS, func(n int) error {
		d, err := scaleDuration(n, time.Millisecond)
		s.Engine.RateLimit.Window = d
		return err
	}); err != nil {
		return err
	}
	if err := intVar(env, EnvRateCleanupMS, func(n int) error {
		d, err := scaleDuration(n, time.Millisecond)
		s.Engine.RateLimit.CleanupInterval = d
		return err
	}); err != nil {
		return err
	}
	if err := intVar(env, EnvPasswordIter, func(n int) error {
		s.Engine.Password.Iterations = n
		return nil
	}); err != nil {
		return err
	}
	if err := boolVar(env, EnvTrustProxy, func(b bool) { s.Engine.RateLimit.TrustProxy = b }); err != nil {
		return err
	}
	if err := boolVar(env, EnvDebugMode, func(b bool) { s.Debug = b }); err != nil {
		return err
	}

	if raw, ok := env.get(EnvLoginPaths); ok {
		s.Engine.RateLimit.LoginPaths = splitList(raw)
	}
	if port, ok := env.get(EnvPort); ok {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return configErr(EnvPort, "must be a port number")
		}
		s.Port = port
	}
	if url, ok := env.get(EnvRedisURL); ok {
		s.RedisURL = strings.TrimSpace(url)
	}
	if raw, ok := env.get(EnvLogLevel); ok {
		lvl, err := parseLevel(raw)
		if err != nil {
			return configErr(EnvLogLevel, err.Error())
		}
		s.LogLevel = lvl
	}
	if s.Debug {
		s.LogLevel = slog.LevelDebug
	}
	if raw, ok := env.get(EnvLogFormat); ok {
		format, err := parseFormat(raw)
		if err != nil {
			return configErr(EnvLogFormat, err.Error())
		}
		s.LogFormat = format
	}
	return nil
}

func intVar(env layered, key string, set func(int) error) error {
	raw, ok := env.get(key)
	if !ok {
		return nil
	}
	n, err := ParseInt(raw)
	if err != nil {
		return configErr(key, err.Error())
	}
	if err := set(n); err != nil {
		return configErr(key, err.Error())
	}
	return nil
}

// scaleDuration multiplies n by unit, failing instead of wrapping past int64.
func scaleDuration(n int, unit time.Duration) (time.Duration, error) {
	limit := int64(math.MaxInt64 / unit)
	if int64(n) > limit || int64(n) < -limit {
		return 0, errors.New("out of range")
	}
	return time.Duration(n) * unit, nil
}

func boolVar(env layered, key string, set func(bool)) error {
	raw, ok := env.get(key)
	if !ok {
		return nil
	}
	b, err := ParseBool(raw)
	if err != nil {
		return configErr(key, err.Error())
	}
	set(b)
	return nil
}

// ParseBool accepts exactly "true" or "false".
func ParseBool(raw string) (bool, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("must be true or false, got %q", raw)
	}
}

// ParseInt accepts an optionally signed base-10 integer and nothing else.
func ParseInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("must be an integer, got %q", raw)
	}
	return n, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo, errors.New("must be debug, info, warn or error")
	}
	return lvl, nil
}

func parseFormat(raw string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case "json", "text":
		return f, nil
	default:
		return "", errors.New("must be json or text")
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func configErr(field, reason string) error {
	return &gateAuth.ConfigError{Field: field, Reason: reason}
}
