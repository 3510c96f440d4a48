package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Starbem/star-db-query-builder/runtime"
)

// SlowQueryHook is called for each statement slower than the threshold.
type SlowQueryHook func(e runtime.Event)

// StatsSink counts events. It is safe for concurrent use.
type StatsSink struct {
	queries     atomic.Int64
	errors      atomic.Int64
	retries     atomic.Int64
	slow        atomic.Int64
	commits     atomic.Int64
	rollbacks   atomic.Int64
	connections atomic.Int64
	duration    atomic.Int64 // nanoseconds

	threshold time.Duration
	hooks     []SlowQueryHook
}

// StatsOption configures a StatsSink.
type StatsOption func(*StatsSink)

// WithSlowThreshold sets the slow-query threshold.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsSink) {
		s.threshold = d
	}
}

// WithSlowQueryHook adds a hook run for every slow statement.
func WithSlowQueryHook(h SlowQueryHook) StatsOption {
	return func(s *StatsSink) {
		if h != nil {
			s.hooks = append(s.hooks, h)
		}
	}
}

// WithSlowQueryLog logs slow statements at Warn. A nil logger uses
// slog.Default().
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	return WithSlowQueryHook(func(e runtime.Event) {
		l := logger
		if l == nil {
			l = slog.Default()
		}
		l.LogAttrs(context.Background(), slog.LevelWarn, "slow query",
			slog.String("dialect", e.Dialect),
			slog.String("sql", e.SQL),
			slog.Duration("elapsed", e.Elapsed),
			slog.Int("attempt", e.Attempt),
		)
	})
}

// NewStatsSink creates an empty StatsSink.
func NewStatsSink(opts ...StatsOption) *StatsSink {
	s := &StatsSink{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe updates the counters for e.
func (s *StatsSink) Observe(e runtime.Event) {
	switch e.Type {
	case runtime.EventQueryEnd:
		s.queries.Add(1)
		s.duration.Add(int64(e.Elapsed))
		s.checkSlow(e)
	case runtime.EventQueryError:
		s.errors.Add(1)
		s.duration.Add(int64(e.Elapsed))
		s.checkSlow(e)
	case runtime.EventRetryAttempt:
		s.retries.Add(1)
	case runtime.EventTransactionCommit:
		s.commits.Add(1)
	case runtime.EventTransactionRollback:
		s.rollbacks.Add(1)
	case runtime.EventConnectionCreated:
		s.connections.Add(1)
	}
}

func (s *StatsSink) checkSlow(e runtime.Event) {
	if s.threshold <= 0 || e.Elapsed < s.threshold {
		return
	}
	s.slow.Add(1)
	for _, h := range s.hooks {
		h(e)
	}
}

// Snapshot returns the current counter values.
func (s *StatsSink) Snapshot() Snapshot {
	return Snapshot{
		Queries:       s.queries.Load(),
		Errors:        s.errors.Load(),
		Retries:       s.retries.Load(),
		SlowQueries:   s.slow.Load(),
		Commits:       s.commits.Load(),
		Rollbacks:     s.rollbacks.Load(),
		Connections:   s.connections.Load(),
		TotalDuration: time.Duration(s.duration.Load()),
	}
}

// Reset sets every counter to zero.
func (s *StatsSink) Reset() {
	for _, c := range []*atomic.Int64{&s.queries, &s.errors, &s.retries, &s.slow, &s.commits, &s.rollbacks, &s.connections, &s.duration} {
		c.Store(0)
	}
}

// Snapshot is a point-in-time copy of StatsSink counters.
type Snapshot struct {
	Queries       int64
	Errors        int64
	Retries       int64
	SlowQueries   int64
	Commits       int64
	Rollbacks     int64
	Connections   int64
	TotalDuration time.Duration
}

// AvgDuration returns the mean statement duration, successful or not.
func (s Snapshot) AvgDuration() time.Duration {
	n := s.Queries + s.Errors
	if n == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(n)
}

func (s Snapshot) String() string {
	return fmt.Sprintf("queries=%d errors=%d retries=%d slow=%d commits=%d rollbacks=%d avg=%s",
		s.Queries, s.Errors, s.Retries, s.SlowQueries, s.Commits, s.Rollbacks, s.AvgDuration())
}
