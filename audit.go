package gateAuth

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/gateAuth/internal/audit"
	"github.com/redis/go-redis/v9"
)

// AuditEvent is a structured security event. It never contains tokens,
// passwords or opened claim values other than the user ID.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink writes audit events into a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// RedisStreamSink appends audit events to a Redis stream.
type RedisStreamSink = audit.RedisStreamSink

// RedisStreamConfig configures a RedisStreamSink.
type RedisStreamConfig = audit.RedisStreamConfig

// MultiSink fans events out to several sinks.
type MultiSink = audit.MultiSink

// NewChannelSink returns a sink with the given channel buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewRedisStreamSink returns a sink that XADDs events to cfg.Stream.
func NewRedisStreamSink(client redis.UniversalClient, cfg RedisStreamConfig, logger *slog.Logger) *RedisStreamSink {
	return audit.NewRedisStreamSink(client, cfg, logger)
}
