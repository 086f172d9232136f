// Package sql runs commands against database/sql backends.
//
// A Conn pins one pooled connection and keeps a stack of transactions on
// it; nested levels are savepoints. Every command issued through the Conn
// runs inside the innermost open level, which is what lets an identity
// read-back statement observe the insert that preceded it.
//
//	conn, err := sql.Open("mysql", dsn)
//	if err != nil {
//	    return err
//	}
//	if err := conn.Open(ctx); err != nil {
//	    return err
//	}
//	defer conn.Close()
//
// # Commands
//
// A Command holds its text as segments of literal SQL and parameter
// references. Placeholders are rendered by the dialect Formatter when the
// command is sent, so a command keeps valid numbering when it is combined
// with others:
//
//	cmd := sql.NewCommand(conn, "SELECT name FROM customers WHERE id = ")
//	cmd.WriteParam(&sql.Parameter{Name: "id", Type: schema.TypeInt64, Value: 7})
//	name, err := cmd.ExecScalar(ctx)
//
// # Batches
//
// A Batch queues commands and packs them into as few round trips as the
// dialect Config allows (MaxCommandsPerBatch, MaxParametersPerCommand and
// MaxCommandLength). Commands that need their result set register a
// ResultFunc; result sets are handed to them in queue order.
//
//	b := sql.NewBatch(conn)
//	b.Add(insert, nil)
//	b.Add(lastID, func(r *sql.Reader) error { ... })
//	err := b.Execute(ctx)
//
// # Observability
//
// StatsConnector and DebugConnector decorate any Connector with statement
// statistics and debug logging. Constraint violations reported by the
// backend can be recognized with IsConstraintError and its variants.
package sql
