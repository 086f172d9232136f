package dialect

import (
	"fmt"
	"strings"
	"time"

	"github.com/syssam/tabula/schema"
)

// Dialect names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Config holds the backend limits the batch manager packs commands under,
// and the default command timeout. A zero limit means unlimited.
type Config struct {
	MaxCommandsPerBatch     int
	MaxParametersPerCommand int
	MaxCommandLength        int
	CommandTimeout          time.Duration
}

// DefaultConfig returns the limits used for a dialect when none are given.
func DefaultConfig(name string) Config {
	switch Name(name) {
	case MySQL:
		return Config{MaxCommandsPerBatch: 100, MaxParametersPerCommand: 65535, MaxCommandLength: 4 << 20}
	case Postgres:
		// lib/pq rejects several statements in one extended query.
		return Config{MaxCommandsPerBatch: 1, MaxParametersPerCommand: 65535}
	case SQLite:
		return Config{MaxCommandsPerBatch: 1, MaxParametersPerCommand: 32766, MaxCommandLength: 1_000_000}
	}
	return Config{MaxCommandsPerBatch: 1}
}

// Merge returns c with zero fields taken from d.
func (c Config) Merge(d Config) Config {
	if c.MaxCommandsPerBatch == 0 {
		c.MaxCommandsPerBatch = d.MaxCommandsPerBatch
	}
	if c.MaxParametersPerCommand == 0 {
		c.MaxParametersPerCommand = d.MaxParametersPerCommand
	}
	if c.MaxCommandLength == 0 {
		c.MaxCommandLength = d.MaxCommandLength
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = d.CommandTimeout
	}
	return c
}

// Name normalizes a driver name to one of the dialect names. Wrapped or
// aliased driver names ("sqlite3", "pgx", "mysql+debug") are mapped by prefix.
func Name(driver string) string {
	switch {
	case strings.HasPrefix(driver, MySQL):
		return MySQL
	case strings.HasPrefix(driver, SQLite):
		return SQLite
	case strings.HasPrefix(driver, Postgres), strings.HasPrefix(driver, "pgx"):
		return Postgres
	}
	return driver
}

// Formatter renders the dialect specific pieces of SQL text: identifiers,
// placeholders, literals and a few fixed statements.
type Formatter interface {
	// Dialect returns the dialect name.
	Dialect() string
	// QuoteIdent escapes a single identifier.
	QuoteIdent(name string) string
	// Placeholder returns the placeholder of the named parameter at the given
	// 1-based position of the statement text.
	Placeholder(name string, ordinal int) string
	// Literal renders v, interpreted as a value of type t, as an escaped SQL
	// literal.
	Literal(v any, t schema.Type) (string, error)
	// TableName renders the qualified, escaped name of a table.
	TableName(t *schema.Table) string
	// ColumnList renders a comma separated list of escaped column names.
	ColumnList(cols []*schema.Column) string
	// Separator returns the text joining statements of a batch.
	Separator() string
	// LastInsertID returns the statement reading the identity value generated
	// by the most recent insert on the connection.
	LastInsertID(t *schema.Table) string
	// RoutineCall returns the text opening a call of the named routine, up to
	// and including the opening parenthesis of its argument list.
	RoutineCall(name string) (string, error)
}

// For returns the formatter of the named dialect.
func For(name string) (Formatter, error) {
	switch Name(name) {
	case MySQL:
		return mysqlFormatter{}, nil
	case Postgres:
		return postgresFormatter{}, nil
	case SQLite:
		return sqliteFormatter{}, nil
	}
	return nil, fmt.Errorf("dialect: unsupported dialect %q", name)
}
