package telemetry_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Starbem/star-db-query-builder/internal/adapters/telemetry"
	"github.com/Starbem/star-db-query-builder/runtime"
)

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := telemetry.NewSlogSink(jsonLogger(&buf))

	sink.Observe(runtime.Event{Type: runtime.EventQueryStart, Dialect: "postgres", SQL: "SELECT 1", Attempt: 1})
	sink.Observe(runtime.Event{Type: runtime.EventQueryEnd, Dialect: "postgres", SQL: "SELECT 1", Attempt: 1, Elapsed: time.Millisecond, Rows: 1})
	sink.Observe(runtime.Event{Type: runtime.EventRetryAttempt, Dialect: "postgres", SQL: "SELECT 1", Attempt: 2, Elapsed: 100 * time.Millisecond})
	sink.Observe(runtime.Event{Type: runtime.EventQueryError, Dialect: "postgres", SQL: "SELECT 1", Attempt: 2, Err: errors.New("syntax error")})
	sink.Observe(runtime.Event{Type: runtime.EventTransactionCommit, Dialect: "postgres"})

	recs := records(t, &buf)
	require.Len(t, recs, 5)

	levels := make([]string, len(recs))
	msgs := make([]string, len(recs))
	for i, r := range recs {
		levels[i] = r["level"].(string)
		msgs[i] = r["msg"].(string)
	}
	assert.Equal(t, []string{"DEBUG", "DEBUG", "WARN", "ERROR", "INFO"}, levels)
	assert.Equal(t, []string{"QUERY_START", "QUERY_END", "RETRY_ATTEMPT", "QUERY_ERROR", "TRANSACTION_COMMIT"}, msgs)

	assert.Equal(t, "SELECT 1", recs[1]["sql"])
	assert.EqualValues(t, 1, recs[1]["rows"])
	assert.Equal(t, "syntax error", recs[3]["error"])
	assert.NotContains(t, recs[4], "sql")
}

func TestStatsSink(t *testing.T) {
	var slow []string
	sink := telemetry.NewStatsSink(
		telemetry.WithSlowThreshold(50*time.Millisecond),
		telemetry.WithSlowQueryHook(func(e runtime.Event) { slow = append(slow, e.SQL) }),
	)

	sink.Observe(runtime.Event{Type: runtime.EventConnectionCreated})
	sink.Observe(runtime.Event{Type: runtime.EventQueryStart, SQL: "fast"})
	sink.Observe(runtime.Event{Type: runtime.EventQueryEnd, SQL: "fast", Elapsed: 10 * time.Millisecond})
	sink.Observe(runtime.Event{Type: runtime.EventQueryEnd, SQL: "slow", Elapsed: 70 * time.Millisecond})
	sink.Observe(runtime.Event{Type: runtime.EventRetryAttempt})
	sink.Observe(runtime.Event{Type: runtime.EventQueryError, SQL: "broken", Elapsed: 60 * time.Millisecond})
	sink.Observe(runtime.Event{Type: runtime.EventTransactionCommit})
	sink.Observe(runtime.Event{Type: runtime.EventTransactionRollback})

	snap := sink.Snapshot()
	assert.Equal(t, telemetry.Snapshot{
		Queries:       2,
		Errors:        1,
		Retries:       1,
		SlowQueries:   2,
		Commits:       1,
		Rollbacks:     1,
		Connections:   1,
		TotalDuration: 140 * time.Millisecond,
	}, snap)
	assert.Equal(t, []string{"slow", "broken"}, slow)
	assert.Equal(t, 140*time.Millisecond/3, snap.AvgDuration())
	assert.Contains(t, snap.String(), "queries=2 errors=1 retries=1 slow=2")

	sink.Reset()
	assert.Equal(t, telemetry.Snapshot{}, sink.Snapshot())
	assert.Zero(t, sink.Snapshot().AvgDuration())
}

func TestSlowQueryLog(t *testing.T) {
	var buf bytes.Buffer
	sink := telemetry.NewStatsSink(telemetry.WithSlowThreshold(time.Millisecond), telemetry.WithSlowQueryLog(jsonLogger(&buf)))
	sink.Observe(runtime.Event{Type: runtime.EventQueryEnd, Dialect: "mysql", SQL: "SELECT SLEEP(1)", Elapsed: time.Second, Attempt: 1})

	recs := records(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "slow query", recs[0]["msg"])
	assert.Equal(t, "SELECT SLEEP(1)", recs[0]["sql"])
}

func TestMulti(t *testing.T) {
	a, b := telemetry.NewStatsSink(), telemetry.NewStatsSink()
	m := telemetry.Multi(a, nil, b)
	m.Observe(runtime.Event{Type: runtime.EventQueryEnd})

	assert.EqualValues(t, 1, a.Snapshot().Queries)
	assert.EqualValues(t, 1, b.Snapshot().Queries)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *telemetry.Config
		want    any
		wantErr bool
	}{
		{"nil config", nil, telemetry.Noop{}, false},
		{"empty type", &telemetry.Config{}, telemetry.Noop{}, false},
		{"slog", &telemetry.Config{Type: telemetry.TypeSlog}, &telemetry.SlogSink{}, false},
		{"stats", &telemetry.Config{Type: telemetry.TypeStats, SlowThreshold: time.Second}, &telemetry.StatsSink{}, false},
		{"unknown", &telemetry.Config{Type: "prometheus"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := telemetry.New(tt.cfg)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unknown telemetry type")
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, obs)
		})
	}
}
