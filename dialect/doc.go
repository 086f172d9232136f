// Package dialect holds what differs between relational backends: dialect
// names, backend limits, and the Formatter rendering identifiers,
// placeholders and literals.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL, escaping through github.com/lib/pq
//   - MySQL: MySQL/MariaDB
//   - SQLite: SQLite
//
// # Formatters
//
// A Formatter is looked up by dialect name:
//
//	f, err := dialect.For(dialect.Postgres)
//	f.QuoteIdent(`order`)               // "order"
//	f.Placeholder("id", 2)              // $2
//	f.Literal("O'Brien", schema.TypeString) // 'O''Brien'
//
// Literals are always rendered through the formatter of the target dialect;
// the delete builder relies on this to inline key values safely.
//
// # Limits
//
// Config carries the ceilings the batch manager packs statements under:
//
//	cfg := dialect.DefaultConfig(dialect.MySQL)
//	cfg.MaxCommandsPerBatch = 20
//
// A zero ceiling means unlimited.
package dialect
