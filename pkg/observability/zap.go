package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ZapSink bridges events onto a zap logger for human-readable development
// output. The event type and attributes become zap fields; the level maps
// onto the corresponding zap level.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink wraps the provided zap logger.
func NewZapSink(logger *zap.Logger) (*ZapSink, error) {
	if logger == nil {
		return nil, fmt.Errorf("zap sink requires a logger")
	}
	return &ZapSink{logger: logger}, nil
}

// NewDevelopmentZapSink builds a sink backed by zap's development config.
func NewDevelopmentZapSink() (*ZapSink, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("build development logger: %w", err)
	}
	return NewZapSink(logger)
}

// Emit implements Sink.
func (s *ZapSink) Emit(_ context.Context, event Event) error {
	fields := make([]zap.Field, 0, len(event.Attributes)+2)
	fields = append(fields, zap.String("type", event.Type))
	if !event.Timestamp.IsZero() {
		fields = append(fields, zap.Time("eventTime", event.Timestamp))
	}
	for k, v := range event.Attributes {
		fields = append(fields, zap.Any(k, v))
	}

	switch event.Level {
	case LevelError:
		s.logger.Error(event.Message, fields...)
	case LevelWarn:
		s.logger.Warn(event.Message, fields...)
	default:
		s.logger.Info(event.Message, fields...)
	}
	return nil
}

// Close flushes buffered log entries.
func (s *ZapSink) Close() error {
	// Sync on stderr-backed loggers returns ENOTTY-style errors we don't care about.
	_ = s.logger.Sync()
	return nil
}

var _ Sink = (*ZapSink)(nil)
