package sql

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/schema"
)

// ErrCommandClosed is returned when a closed command is executed.
var ErrCommandClosed = errors.New("dialect/sql: command is closed")

// Parameter is a typed argument of a command.
type Parameter struct {
	Name      string
	Type      schema.Type
	Size      int
	Precision int
	Scale     int
	Value     any
}

// segment is a piece of command text: either literal SQL or a reference to
// one of the command parameters.
type segment struct {
	text  string
	param int // index into Command.params, or -1
}

// Command is a statement with its parameters, bound to a Connector.
//
// Its text is kept as segments so that placeholders are rendered only when
// the command is sent: a command combined into a batch after others gets
// placeholder positions following theirs.
type Command struct {
	conn     Connector
	segments []segment
	params   []*Parameter
	timeout  time.Duration
	closed   bool
}

// NewCommand returns a command on conn, optionally pre-filled with text.
func NewCommand(conn Connector, text ...string) *Command {
	c := &Command{conn: conn}
	for _, t := range text {
		c.WriteString(t)
	}
	return c
}

// Connector returns the connector the command runs on.
func (c *Command) Connector() Connector { return c.conn }

// WriteString appends literal SQL to the command text.
func (c *Command) WriteString(s string) *Command {
	if s == "" {
		return c
	}
	if n := len(c.segments); n > 0 && c.segments[n-1].param < 0 {
		c.segments[n-1].text += s
		return c
	}
	c.segments = append(c.segments, segment{text: s, param: -1})
	return c
}

// WriteIdent appends an escaped identifier.
func (c *Command) WriteIdent(name string) *Command {
	return c.WriteString(c.conn.Formatter().QuoteIdent(name))
}

// WriteParam adds p to the command and appends its placeholder to the text.
func (c *Command) WriteParam(p *Parameter) *Command {
	c.params = append(c.params, p)
	c.segments = append(c.segments, segment{param: len(c.params) - 1})
	return c
}

// AddParameter adds a parameter without writing a placeholder. It is used
// with SetText, where the text already holds the dialect placeholders.
func (c *Command) AddParameter(p *Parameter) *Parameter {
	c.params = append(c.params, p)
	return p
}

// SetText replaces the command text. Parameters are kept.
func (c *Command) SetText(text string) {
	c.segments = c.segments[:0]
	c.WriteString(text)
}

// Text returns the command text as sent when the command runs on its own.
func (c *Command) Text() string {
	return c.render(0)
}

// Params returns the command parameters in placeholder order.
func (c *Command) Params() []*Parameter { return c.params }

// Args returns the parameter values in placeholder order.
func (c *Command) Args() []any {
	args := make([]any, len(c.params))
	for i, p := range c.params {
		args[i] = p.Value
	}
	return args
}

// SetTimeout overrides the connector default timeout for this command.
// Zero restores the default.
func (c *Command) SetTimeout(d time.Duration) { c.timeout = d }

// Timeout returns the effective timeout of the command; zero means none.
func (c *Command) Timeout() time.Duration {
	if c.timeout > 0 {
		return c.timeout
	}
	return c.conn.Config().CommandTimeout
}

// render returns the text with placeholder positions starting after offset.
func (c *Command) render(offset int) string {
	f := c.conn.Formatter()
	var b strings.Builder
	for _, s := range c.segments {
		if s.param < 0 {
			b.WriteString(s.text)
			continue
		}
		b.WriteString(f.Placeholder(c.params[s.param].Name, offset+s.param+1))
	}
	return b.String()
}

// ExecNonQuery runs the command and returns the number of affected rows.
func (c *Command) ExecNonQuery(ctx context.Context) (int64, error) {
	if c.closed {
		return 0, ErrCommandClosed
	}
	ctx, cancel := withTimeout(ctx, c.Timeout())
	defer cancel()
	text := c.Text()
	res, err := c.conn.Exec(ctx, text, c.Args())
	if err != nil {
		return 0, tabula.NewCommandError(text, Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, tabula.NewCommandError(text, err)
	}
	return n, nil
}

// ExecReader runs the command and returns a reader over its result sets.
// The reader must be closed.
func (c *Command) ExecReader(ctx context.Context) (*Reader, error) {
	if c.closed {
		return nil, ErrCommandClosed
	}
	ctx, cancel := withTimeout(ctx, c.Timeout())
	text := c.Text()
	rows, err := c.conn.Query(ctx, text, c.Args())
	if err != nil {
		cancel()
		return nil, tabula.NewCommandError(text, Classify(err))
	}
	r, err := NewReader(rows)
	if err != nil {
		cancel()
		return nil, tabula.NewCommandError(text, err)
	}
	r.cancel = cancel
	return r, nil
}

// ExecScalar runs the command and returns the first column of the first
// row, or nil when there is none.
func (c *Command) ExecScalar(ctx context.Context) (any, error) {
	r, err := c.ExecReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if !r.Next() {
		if err := r.Err(); err != nil {
			return nil, tabula.NewCommandError(c.Text(), err)
		}
		return nil, nil
	}
	return r.Value(0), nil
}

// Close releases the command. Closed commands can not be executed.
func (c *Command) Close() error {
	c.closed = true
	c.params = nil
	c.segments = nil
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
