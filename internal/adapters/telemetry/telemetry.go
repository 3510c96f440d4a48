// Package telemetry turns execution client events into logs and counters.
package telemetry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Starbem/star-db-query-builder/runtime"
)

// Type selects a sink in New.
type Type string

const (
	TypeNoop  Type = "noop"
	TypeSlog  Type = "slog"
	TypeStats Type = "stats"
)

// Config holds sink configuration.
type Config struct {
	Type Type
	// Logger is used by the slog sink and the slow-query log. Defaults to
	// slog.Default().
	Logger *slog.Logger
	// SlowThreshold marks statements slower than it as slow. Zero disables
	// slow-query detection.
	SlowThreshold time.Duration
}

// New creates the sink named by cfg.Type. A nil config yields Noop.
func New(cfg *Config) (runtime.Observer, error) {
	if cfg == nil {
		return Noop{}, nil
	}
	switch cfg.Type {
	case TypeNoop, "":
		return Noop{}, nil
	case TypeSlog:
		return NewSlogSink(cfg.Logger), nil
	case TypeStats:
		return NewStatsSink(WithSlowThreshold(cfg.SlowThreshold), WithSlowQueryLog(cfg.Logger)), nil
	default:
		return nil, fmt.Errorf("unknown telemetry type: %s", cfg.Type)
	}
}

// Noop discards every event.
type Noop struct{}

// Observe does nothing.
func (Noop) Observe(runtime.Event) {}

// Multi fans every event out to each observer in order. Nil observers are
// skipped.
func Multi(observers ...runtime.Observer) runtime.Observer {
	list := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multi []runtime.Observer

func (m multi) Observe(e runtime.Event) {
	for _, o := range m {
		o.Observe(e)
	}
}

var (
	_ runtime.Observer = Noop{}
	_ runtime.Observer = multi(nil)
)
