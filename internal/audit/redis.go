package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultStream       = "gateauth:audit"
	defaultStreamMaxLen = 100_000
	defaultWriteTimeout = 2 * time.Second
)

// RedisStreamConfig configures [RedisStreamSink].
type RedisStreamConfig struct {
	Stream       string
	MaxLen       int64
	WriteTimeout time.Duration
}

// RedisStreamSink appends each event to a Redis stream with XADD. The stream is
// trimmed approximately to MaxLen entries.
//
// Write failures are logged and otherwise ignored; audit delivery never affects
// request outcome.
type RedisStreamSink struct {
	client redis.UniversalClient
	cfg    RedisStreamConfig
	logger *slog.Logger
}

// NewRedisStreamSink returns a sink writing to client. A nil logger discards errors.
func NewRedisStreamSink(client redis.UniversalClient, cfg RedisStreamConfig, logger *slog.Logger) *RedisStreamSink {
	if cfg.Stream == "" {
		cfg.Stream = defaultStream
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = defaultStreamMaxLen
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RedisStreamSink{client: client, cfg: cfg, logger: logger}
}

// Stream returns the stream key events are written to.
func (s *RedisStreamSink) Stream() string {
	return s.cfg.Stream
}

func (s *RedisStreamSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.client == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Debug("audit event encode failed", "event_type", event.EventType, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.cfg.Stream,
		MaxLen: s.cfg.MaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":         event.ID,
			"event_type": event.EventType,
			"payload":    string(payload),
		},
	}).Err()
	if err != nil {
		s.logger.Warn("audit stream write failed", "stream", s.cfg.Stream, "event_type", event.EventType, "error", err)
	}
}
