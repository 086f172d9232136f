package builder

import (
	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/schema"
)

// Delete builds deletes of many rows at once. Key values are inlined as
// escaped literals so that a delete is not bound by the parameter limit.
type Delete struct {
	conn  sql.Connector
	table *schema.Table
	head  string
}

func newDelete(conn sql.Connector, t *schema.Table) *Delete {
	return &Delete{conn: conn, table: t, head: "DELETE FROM " + conn.Formatter().TableName(t) + " WHERE "}
}

// Commands consumes vp and returns the deletes of all its rows, or nothing
// when it is empty. Rows are split over several commands only when one
// would exceed the connector MaxCommandLength.
func (b *Delete) Commands(vp ValueProvider) ([]*sql.Command, error) {
	keys := b.table.PrimaryKeys
	var tuples [][]any
	for vp.MoveNext() {
		tuple := make([]any, len(keys))
		for i, c := range keys {
			tuple[i] = vp.GetValue(c)
		}
		tuples = append(tuples, tuple)
	}
	if len(tuples) == 0 {
		return nil, nil
	}
	f := b.conn.Formatter()
	terms, err := Terms(f, keys, tuples)
	if err != nil {
		return nil, tabula.NewArgumentError("delete", "%v", err)
	}
	limit := b.conn.Config().MaxCommandLength
	base := len(b.head) + len(Predicate(f, keys, nil))
	sep := len(" OR ")
	if len(keys) == 1 {
		sep = len(", ")
	}
	var (
		cmds  []*sql.Command
		chunk []string
		size  = base
	)
	for _, term := range terms {
		next := size + len(term)
		if len(chunk) > 0 {
			next += sep
		}
		if limit > 0 && len(chunk) > 0 && next > limit {
			cmds = append(cmds, b.command(chunk))
			chunk, next = nil, base+len(term)
		}
		chunk = append(chunk, term)
		size = next
	}
	return append(cmds, b.command(chunk)), nil
}

func (b *Delete) command(terms []string) *sql.Command {
	return sql.NewCommand(b.conn, b.head, Predicate(b.conn.Formatter(), b.table.PrimaryKeys, terms))
}

// DeleteWhere returns the delete of the rows of t matching where, a
// predicate with inlined literals such as the one KeyFilter renders. It is
// used for tables without primary keys, whose rows can not be deleted by key.
func (f *Factory) DeleteWhere(t *schema.Table, where string) (*sql.Command, error) {
	if err := t.RequireTable("delete"); err != nil {
		return nil, err
	}
	if where == "" {
		return nil, tabula.NewArgumentError("delete", "empty predicate for %s", t.TypeName())
	}
	return sql.NewCommand(f.conn, "DELETE FROM ", f.conn.Formatter().TableName(t), " WHERE ", where), nil
}
