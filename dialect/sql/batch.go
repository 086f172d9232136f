package sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/syssam/tabula"
)

// ResultFunc consumes the result set a batched command produced.
type ResultFunc func(*Reader) error

// step is one queued command.
type step struct {
	cmd *Command
	fn  ResultFunc
}

// Batch queues commands and sends them in as few round trips as the
// connector limits allow. Commands keep their queue order; commands that
// carry a ResultFunc have it invoked, in order, with their own result set.
//
// A Batch is not safe for concurrent use.
type Batch struct {
	conn    Connector
	log     *slog.Logger
	steps   []step
	flushes int
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// BatchLogger sets the logger flushes are reported to.
func BatchLogger(l *slog.Logger) BatchOption {
	return func(b *Batch) {
		b.log = l
	}
}

// NewBatch returns an empty batch on conn.
func NewBatch(conn Connector, opts ...BatchOption) *Batch {
	b := &Batch{conn: conn, log: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add queues cmd. fn, if not nil, is called with the command's result set
// when the batch executes.
func (b *Batch) Add(cmd *Command, fn ResultFunc) {
	b.steps = append(b.steps, step{cmd: cmd, fn: fn})
}

// Len returns the number of queued commands.
func (b *Batch) Len() int { return len(b.steps) }

// Flushes returns the number of round trips made by Execute so far.
func (b *Batch) Flushes() int { return b.flushes }

// group is a run of steps sent in one round trip.
type group struct {
	steps   []step
	texts   []string
	args    []any
	length  int
	timeout time.Duration
}

// Execute sends the queued commands and empties the queue. Commands are
// packed greedily into groups that stay under the command count, parameter
// count and text length limits; a single command over a limit is sent
// alone. The first failing group aborts the rest.
func (b *Batch) Execute(ctx context.Context) error {
	steps := b.steps
	b.steps = nil
	if len(steps) == 0 {
		return nil
	}
	var (
		cfg = b.conn.Config()
		sep = b.conn.Formatter().Separator()
		g   group
	)
	for _, s := range steps {
		text := s.cmd.render(len(g.args))
		if len(g.steps) > 0 && !fits(cfg.MaxCommandsPerBatch, len(g.steps)+1) ||
			len(g.steps) > 0 && !fits(cfg.MaxParametersPerCommand, len(g.args)+len(s.cmd.params)) ||
			len(g.steps) > 0 && !fits(cfg.MaxCommandLength, g.length+len(sep)+len(text)) {
			if err := b.flush(ctx, g, sep); err != nil {
				return err
			}
			g = group{}
			text = s.cmd.render(0)
		}
		if len(g.steps) > 0 {
			g.length += len(sep)
		}
		g.steps = append(g.steps, s)
		g.texts = append(g.texts, text)
		g.args = append(g.args, s.cmd.Args()...)
		g.length += len(text)
		g.timeout = max(g.timeout, s.cmd.Timeout())
	}
	return b.flush(ctx, g, sep)
}

func fits(limit, n int) bool {
	return limit <= 0 || n <= limit
}

func (b *Batch) flush(ctx context.Context, g group, sep string) error {
	b.flushes++
	text := strings.Join(g.texts, sep)
	b.log.DebugContext(ctx, "tabula: batch flush",
		"commands", len(g.steps), "params", len(g.args), "length", len(text))
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()
	reads := false
	for _, s := range g.steps {
		reads = reads || s.fn != nil
	}
	if !reads {
		if _, err := b.conn.Exec(ctx, text, g.args); err != nil {
			return tabula.NewCommandError(text, Classify(err))
		}
		return nil
	}
	rows, err := b.conn.Query(ctx, text, g.args)
	if err != nil {
		return tabula.NewCommandError(text, Classify(err))
	}
	r, err := NewReader(rows)
	if err != nil {
		return tabula.NewCommandError(text, err)
	}
	err = readResults(r, g, text)
	if cerr := r.Close(); err == nil && cerr != nil {
		err = tabula.NewCommandError(text, Classify(cerr))
	}
	return err
}

// readResults feeds each callback of g its result set. Result sets of
// trailing commands are left to Close, which discards them and reports
// their failures.
func readResults(r *Reader, g group, text string) error {
	// started is set once the reader has been handed to a callback, after
	// which the next callback needs a fresh result set.
	started := false
	for i, s := range g.steps {
		if s.fn == nil {
			continue
		}
		if err := nextResult(r, started); err != nil {
			return tabula.NewCommandError(g.texts[i], err)
		}
		started = true
		if err := s.fn(r); err != nil {
			return tabula.NewCommandError(g.texts[i], err)
		}
	}
	if err := r.Err(); err != nil {
		return tabula.NewCommandError(text, Classify(err))
	}
	return nil
}

// nextResult positions r on the next result set that has columns. Result
// sets of statements returning no rows are skipped.
func nextResult(r *Reader, advance bool) error {
	if advance && !r.NextResult() {
		return missingResult(r)
	}
	for len(r.Columns()) == 0 {
		if !r.NextResult() {
			return missingResult(r)
		}
	}
	return nil
}

func missingResult(r *Reader) error {
	if err := r.Err(); err != nil {
		return Classify(err)
	}
	return fmt.Errorf("dialect/sql: command produced no result set")
}
