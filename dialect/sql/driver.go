package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
)

// Connector is the execution surface the command builders and access
// objects run on. Conn implements it for database/sql; StatsConnector and
// DebugConnector decorate it.
type Connector interface {
	// Formatter returns the format provider of the backend dialect.
	Formatter() dialect.Formatter
	// Config returns the backend limits and default command timeout.
	Config() dialect.Config
	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, query string, args []any) (Result, error)
	// Query runs a statement returning one or more result sets. The caller
	// must close the returned scanner.
	Query(ctx context.Context, query string, args []any) (ColumnScanner, error)
}

// ExecQuerier wraps the standard Exec and Query methods. It is implemented
// by *sql.Conn and *sql.Tx.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn is a Connector over one pinned database/sql connection. Commands
// issued through it run on that connection, inside the innermost open
// transaction if any, one at a time.
type Conn struct {
	db        *sql.DB
	dialect   string
	formatter dialect.Formatter
	log       *slog.Logger

	cfgMu sync.RWMutex
	cfg   dialect.Config

	// mu serializes statements on the pinned connection. Query holds it
	// until the returned rows are closed.
	mu   sync.Mutex
	conn *sql.Conn
	txs  []frame
}

// frame is one level of the transaction stack. Nested levels are savepoints
// of the outermost transaction.
type frame struct {
	tx        *sql.Tx
	savepoint string
}

// Option configures a Conn.
type Option func(*Conn)

// WithConfig overrides the dialect default limits. Zero fields keep their
// defaults.
func WithConfig(cfg dialect.Config) Option {
	return func(c *Conn) {
		c.cfg = cfg.Merge(c.cfg)
	}
}

// WithLogger sets the logger used for connection and batch events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Conn) {
		c.log = l
	}
}

// WithFormatter replaces the dialect formatter.
func WithFormatter(f dialect.Formatter) Option {
	return func(c *Conn) {
		c.formatter = f
	}
}

// Open wraps the database/sql.Open method and returns a Conn for the named
// driver. The connection still needs to be opened with Conn.Open.
func Open(driverName, source string, opts ...Option) (*Conn, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(driverName, db, opts...)
}

// OpenDB wraps the given database/sql.DB with a Conn.
func OpenDB(driverName string, db *sql.DB, opts ...Option) (*Conn, error) {
	name := dialect.Name(driverName)
	f, err := dialect.For(name)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		db:        db,
		dialect:   name,
		formatter: f,
		log:       slog.Default(),
		cfg:       dialect.DefaultConfig(name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DB returns the underlying *sql.DB instance.
func (c *Conn) DB() *sql.DB { return c.db }

// Dialect returns the dialect name.
func (c *Conn) Dialect() string { return c.dialect }

// Formatter implements the Connector interface.
func (c *Conn) Formatter() dialect.Formatter { return c.formatter }

// Config implements the Connector interface.
func (c *Conn) Config() dialect.Config {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.cfg
}

// SetConfig replaces the backend limits, e.g. after a configuration reload.
func (c *Conn) SetConfig(cfg dialect.Config) {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	c.cfg = cfg.Merge(dialect.DefaultConfig(c.dialect))
}

// Open pins a connection from the pool. Opening an open Conn is a no-op.
func (c *Conn) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", tabula.ErrCanNotOpenConnection, err)
	}
	c.conn = conn
	c.log.Debug("tabula: connection opened", "dialect", c.dialect)
	return nil
}

// Close rolls back any transaction left open and returns the pinned
// connection to the pool. The Conn may be opened again afterwards.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	var err error
	if len(c.txs) > 0 {
		c.log.Warn("tabula: closing connection with open transaction", "depth", len(c.txs))
		err = c.txs[0].tx.Rollback()
		c.txs = nil
	}
	err = errors.Join(err, c.conn.Close())
	c.conn = nil
	if err != nil {
		return fmt.Errorf("%w: %w", tabula.ErrCanNotCloseConnection, err)
	}
	return nil
}

// Begin opens a transaction, or a savepoint inside the current one. Every
// command issued until the matching Commit or Rollback is enrolled in it.
func (c *Conn) Begin(ctx context.Context, opts *sql.TxOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return tabula.ErrConnectorNotInitialized
	}
	if len(c.txs) == 0 {
		tx, err := c.conn.BeginTx(ctx, opts)
		if err != nil {
			return tabula.NewConnectorError("begin", err)
		}
		c.txs = append(c.txs, frame{tx: tx})
		return nil
	}
	top := c.txs[0].tx
	sp := "tabula_sp_" + strconv.Itoa(len(c.txs))
	if _, err := top.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
		return tabula.NewConnectorError("savepoint", err)
	}
	c.txs = append(c.txs, frame{tx: top, savepoint: sp})
	return nil
}

// Commit commits the innermost transaction level.
func (c *Conn) Commit() error {
	return c.end("commit", "RELEASE SAVEPOINT ", (*sql.Tx).Commit)
}

// Rollback rolls back the innermost transaction level.
func (c *Conn) Rollback() error {
	return c.end("rollback", "ROLLBACK TO SAVEPOINT ", (*sql.Tx).Rollback)
}

func (c *Conn) end(op, spStmt string, finish func(*sql.Tx) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.txs) == 0 {
		return tabula.ErrTransactionStackEmpty
	}
	f := c.txs[len(c.txs)-1]
	c.txs = c.txs[:len(c.txs)-1]
	if f.savepoint != "" {
		if _, err := f.tx.ExecContext(context.Background(), spStmt+f.savepoint); err != nil {
			return tabula.NewConnectorError(op, err)
		}
		return nil
	}
	if err := finish(f.tx); err != nil {
		return tabula.NewConnectorError(op, err)
	}
	return nil
}

// Depth returns the number of open transaction levels.
func (c *Conn) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.txs)
}

// executor returns where statements run. c.mu must be held.
func (c *Conn) executor() (ExecQuerier, error) {
	if c.conn == nil {
		return nil, tabula.ErrConnectorNotInitialized
	}
	if n := len(c.txs); n > 0 {
		return c.txs[n-1].tx, nil
	}
	return c.conn, nil
}

// Exec implements the Connector interface.
func (c *Conn) Exec(ctx context.Context, query string, args []any) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ex, err := c.executor()
	if err != nil {
		return nil, err
	}
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: exec: %w", err)
	}
	return res, nil
}

// Query implements the Connector interface. The connection stays locked
// until the returned rows are closed.
func (c *Conn) Query(ctx context.Context, query string, args []any) (ColumnScanner, error) {
	c.mu.Lock()
	ex, err := c.executor()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	var once sync.Once
	return rowsWithCloser{rows, func() error {
		once.Do(c.mu.Unlock)
		return nil
	}}, nil
}

var _ Connector = (*Conn)(nil)

type (
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions holds the transaction options to be used in Conn.Begin.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// rowsWithCloser wraps the ColumnScanner interface with a custom Close hook.
type rowsWithCloser struct {
	ColumnScanner
	closer func() error
}

// Close closes the underlying ColumnScanner and calls the custom closer.
func (r rowsWithCloser) Close() error {
	err := r.ColumnScanner.Close()
	return errors.Join(err, r.closer())
}
