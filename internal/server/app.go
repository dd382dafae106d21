package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gateAuth "github.com/MrEthical07/gateAuth"
	"github.com/MrEthical07/gateAuth/envconfig"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

// Options are process-level knobs not carried by envconfig.
type Options struct {
	// DevRedis starts an in-process miniredis for the audit stream when no
	// REDIS_URL is configured.
	DevRedis bool
	// DemoIdentifier and DemoPassword seed one SUPER_ADMIN account. An empty
	// password is replaced by a random one that is logged once.
	DemoIdentifier string
	DemoPassword   string
	LogOutput      io.Writer
}

type App struct {
	settings *envconfig.Settings
	logger   *slog.Logger
	engine   *gateAuth.Engine
	accounts *AccountStore
	server   *http.Server
	closers  []func()
}

// NewLogger builds the process logger from LOG_FORMAT and LOG_LEVEL.
func NewLogger(w io.Writer, s *envconfig.Settings) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.LogLevel}
	if s.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func NewApp(ctx context.Context, s *envconfig.Settings, opts Options) (*App, error) {
	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logger := NewLogger(out, s)
	app := &App{settings: s, logger: logger, accounts: NewAccountStore()}

	builder := gateAuth.New().WithConfig(s.Engine).WithLogger(logger.With("component", "gateauth"))

	client, err := app.redisClient(opts.DevRedis)
	if err != nil {
		app.close()
		return nil, err
	}
	if client != nil {
		cfg := s.Engine
		cfg.Audit.Enabled = true
		builder.WithConfig(cfg).WithAuditSink(gateAuth.NewRedisStreamSink(client, gateAuth.RedisStreamConfig{}, logger))
	}

	engine, err := builder.Build()
	if err != nil {
		app.close()
		return nil, fmt.Errorf("engine init error: %w", err)
	}
	app.engine = engine
	app.closers = append([]func(){engine.Close}, app.closers...)

	for _, w := range engine.SecurityReport().Warnings {
		logger.Warn("security posture", "warning", w)
	}

	if opts.DemoIdentifier != "" {
		if err := app.seedDemo(ctx, opts.DemoIdentifier, opts.DemoPassword); err != nil {
			app.close()
			return nil, err
		}
	}

	app.server = &http.Server{
		Addr:              net.JoinHostPort("", s.Port),
		Handler:           NewHandler(engine, app.accounts, logger).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return app, nil
}

func (app *App) redisClient(dev bool) (redis.UniversalClient, error) {
	if url := app.settings.RedisURL; url != "" {
		opt, err := redis.ParseURL(url)
		if err != nil {
			return nil, &gateAuth.ConfigError{Field: envconfig.EnvRedisURL, Reason: err.Error()}
		}
		client := redis.NewClient(opt)
		app.closers = append(app.closers, func() { _ = client.Close() })
		app.logger.Info("audit stream enabled", "redis", opt.Addr)
		return client, nil
	}
	if !dev {
		return nil, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app.closers = append(app.closers, func() {
		_ = client.Close()
		mr.Close()
	})
	app.logger.Info("audit stream enabled", "redis", mr.Addr(), "dev", true)
	return client, nil
}

func (app *App) seedDemo(ctx context.Context, identifier, password string) error {
	generated := password == ""
	if generated {
		buf := make([]byte, 12)
		if _, err := rand.Read(buf); err != nil {
			return err
		}
		password = base64.RawURLEncoding.EncodeToString(buf)
	}

	if _, err := app.accounts.Register(ctx, app.engine, identifier, password, gateAuth.RoleSuperAdmin); err != nil {
		return fmt.Errorf("seed demo account: %w", err)
	}
	if generated {
		app.logger.Warn("demo account created with generated password", "identifier", identifier, "password", password)
	} else {
		app.logger.Info("demo account created", "identifier", identifier)
	}
	return nil
}

// Handler exposes the router, mainly for tests.
func (app *App) Handler() http.Handler {
	return app.server.Handler
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts the
// listener down and closes the engine.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer app.close()

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("listening", "addr", app.server.Addr)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (app *App) close() {
	for _, fn := range app.closers {
		fn()
	}
	app.closers = nil
}
