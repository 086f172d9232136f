package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Counters accumulates the round trips made through a StatsConnector. A
// flushed batch is one round trip, whatever the number of commands in it.
type Counters struct {
	queries atomic.Int64
	execs   atomic.Int64
	failed  atomic.Int64
	slow    atomic.Int64
	elapsed atomic.Int64 // nanoseconds
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Queries: c.queries.Load(),
		Execs:   c.execs.Load(),
		Failed:  c.failed.Load(),
		Slow:    c.slow.Load(),
		Elapsed: time.Duration(c.elapsed.Load()),
	}
}

// Reset sets every counter to zero.
func (c *Counters) Reset() {
	for _, v := range []*atomic.Int64{&c.queries, &c.execs, &c.failed, &c.slow, &c.elapsed} {
		v.Store(0)
	}
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	// Queries counts round trips that returned result sets.
	Queries int64
	// Execs counts round trips that returned no rows.
	Execs int64
	// Failed counts round trips the backend rejected.
	Failed int64
	// Slow counts round trips above the slow threshold.
	Slow int64
	// Elapsed is the time spent waiting on the backend.
	Elapsed time.Duration
}

// RoundTrips returns the number of times the backend was called.
func (s Snapshot) RoundTrips() int64 { return s.Queries + s.Execs }

// Mean returns the average round trip duration.
func (s Snapshot) Mean() time.Duration {
	n := s.RoundTrips()
	if n == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(n)
}

func (s Snapshot) String() string {
	return fmt.Sprintf("round_trips=%d queries=%d execs=%d failed=%d slow=%d mean=%s",
		s.RoundTrips(), s.Queries, s.Execs, s.Failed, s.Slow, s.Mean())
}

// SlowFunc is called with every command text that exceeded the slow
// threshold.
type SlowFunc func(ctx context.Context, text string, args []any, took time.Duration)

// StatsConnector counts the round trips made through a Connector.
type StatsConnector struct {
	Connector
	counters  Counters
	threshold atomic.Int64
	onSlow    SlowFunc
}

// StatsOption configures a StatsConnector.
type StatsOption func(*StatsConnector)

// WithSlowThreshold sets the duration above which a round trip is slow.
// It defaults to 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsConnector) {
		s.threshold.Store(int64(d))
	}
}

// WithSlowFunc sets the callback run for slow round trips.
func WithSlowFunc(fn SlowFunc) StatsOption {
	return func(s *StatsConnector) {
		s.onSlow = fn
	}
}

// WithSlowLog reports slow round trips as warnings on logger.
func WithSlowLog(logger *slog.Logger) StatsOption {
	return WithSlowFunc(func(ctx context.Context, text string, args []any, took time.Duration) {
		logger.WarnContext(ctx, "slow command", "took", took, "text", text, "args", len(args))
	})
}

// NewStatsConnector wraps c.
//
//	conn, _ := sql.Open(dialect.Postgres, dsn)
//	stats := sql.NewStatsConnector(conn, sql.WithSlowLog(slog.Default()))
//	customers, _ := graph.New[Customer](stats, cache)
//	...
//	fmt.Println(stats.Counters().Snapshot())
func NewStatsConnector(c Connector, opts ...StatsOption) *StatsConnector {
	s := &StatsConnector{Connector: c}
	s.threshold.Store(int64(100 * time.Millisecond))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Counters returns the live counters of s.
func (s *StatsConnector) Counters() *Counters { return &s.counters }

// SlowThreshold returns the current slow threshold.
func (s *StatsConnector) SlowThreshold() time.Duration {
	return time.Duration(s.threshold.Load())
}

// SetSlowThreshold changes the slow threshold of a running connector.
func (s *StatsConnector) SetSlowThreshold(d time.Duration) {
	s.threshold.Store(int64(d))
}

// Query counts a round trip returning rows. Reading the rows is not timed.
func (s *StatsConnector) Query(ctx context.Context, text string, args []any) (ColumnScanner, error) {
	start := time.Now()
	rows, err := s.Connector.Query(ctx, text, args)
	s.observe(ctx, &s.counters.queries, text, args, time.Since(start), err)
	return rows, err
}

// Exec counts a round trip returning no rows.
func (s *StatsConnector) Exec(ctx context.Context, text string, args []any) (Result, error) {
	start := time.Now()
	res, err := s.Connector.Exec(ctx, text, args)
	s.observe(ctx, &s.counters.execs, text, args, time.Since(start), err)
	return res, err
}

func (s *StatsConnector) observe(ctx context.Context, kind *atomic.Int64, text string, args []any, took time.Duration, err error) {
	kind.Add(1)
	s.counters.elapsed.Add(int64(took))
	if err != nil {
		s.counters.failed.Add(1)
	}
	if took <= s.SlowThreshold() {
		return
	}
	s.counters.slow.Add(1)
	if s.onSlow != nil {
		s.onSlow(ctx, text, args, took)
	}
}

// DebugConnector logs every command text sent through a Connector at debug
// level.
type DebugConnector struct {
	Connector
	logger *slog.Logger
}

// NewDebugConnector wraps c. A nil logger means slog.Default().
func NewDebugConnector(c Connector, logger *slog.Logger) *DebugConnector {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugConnector{Connector: c, logger: logger}
}

// Query logs and runs a row returning command.
func (d *DebugConnector) Query(ctx context.Context, text string, args []any) (ColumnScanner, error) {
	d.logger.DebugContext(ctx, "query", "text", text, "args", args)
	return d.Connector.Query(ctx, text, args)
}

// Exec logs and runs a command.
func (d *DebugConnector) Exec(ctx context.Context, text string, args []any) (Result, error) {
	d.logger.DebugContext(ctx, "exec", "text", text, "args", args)
	return d.Connector.Exec(ctx, text, args)
}

var (
	_ Connector = (*StatsConnector)(nil)
	_ Connector = (*DebugConnector)(nil)
)
