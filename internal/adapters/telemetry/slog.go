package telemetry

import (
	"context"
	"log/slog"

	"github.com/Starbem/star-db-query-builder/runtime"
)

// SlogSink writes one structured record per event.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink writing to logger, or to slog.Default() when
// logger is nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Observe logs e at a level chosen by its type.
func (s *SlogSink) Observe(e runtime.Event) {
	attrs := []slog.Attr{slog.String("dialect", e.Dialect)}
	if e.SQL != "" {
		attrs = append(attrs, slog.String("sql", e.SQL), slog.Any("params", e.Params))
	}
	if e.Attempt > 0 {
		attrs = append(attrs, slog.Int("attempt", e.Attempt))
	}
	if e.Elapsed > 0 {
		attrs = append(attrs, slog.Duration("elapsed", e.Elapsed))
	}
	if e.Type == runtime.EventQueryEnd {
		attrs = append(attrs, slog.Int("rows", e.Rows))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}
	if e.InTx {
		attrs = append(attrs, slog.Bool("tx", true))
	}
	s.logger.LogAttrs(context.Background(), level(e.Type), string(e.Type), attrs...)
}

func level(t runtime.EventType) slog.Level {
	switch t {
	case runtime.EventQueryStart, runtime.EventQueryEnd:
		return slog.LevelDebug
	case runtime.EventRetryAttempt:
		return slog.LevelWarn
	case runtime.EventQueryError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
