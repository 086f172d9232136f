package builder

import (
	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/schema"
)

// Insert builds one insert per row of a ValueProvider.
type Insert struct {
	conn    sql.Connector
	table   *schema.Table
	columns []*schema.Column
	head    string
}

func newInsert(conn sql.Connector, t *schema.Table, columns []*schema.Column) *Insert {
	f := conn.Formatter()
	head := "INSERT INTO " + f.TableName(t)
	switch {
	case len(columns) > 0:
		head += " (" + f.ColumnList(columns) + ") VALUES ("
	case f.Dialect() == dialect.MySQL:
		head += " () VALUES ()"
	default:
		head += " DEFAULT VALUES"
	}
	return &Insert{conn: conn, table: t, columns: columns, head: head}
}

// Columns returns the columns the insert writes.
func (b *Insert) Columns() []*schema.Column { return b.columns }

// Command returns the insert of the row vp is positioned on.
func (b *Insert) Command(vp ValueProvider) *sql.Command {
	cmd := sql.NewCommand(b.conn, b.head)
	if len(b.columns) == 0 {
		return cmd
	}
	for i, c := range b.columns {
		if i > 0 {
			cmd.WriteString(", ")
		}
		cmd.WriteParam(param(c, vp.GetValue(c)))
	}
	return cmd.WriteString(")")
}

// Update builds one update per row of a ValueProvider.
type Update struct {
	conn    sql.Connector
	table   *schema.Table
	columns []*schema.Column
}

func newUpdate(conn sql.Connector, t *schema.Table, columns []*schema.Column) *Update {
	return &Update{conn: conn, table: t, columns: columns}
}

// Columns returns the columns the update writes.
func (b *Update) Columns() []*schema.Column { return b.columns }

// Empty reports whether the table has nothing to update: every column is
// part of the key or excluded.
func (b *Update) Empty() bool { return len(b.columns) == 0 }

// Command returns the update of the row vp is positioned on, or nil when
// the update is empty.
func (b *Update) Command(vp ValueProvider) *sql.Command {
	if b.Empty() {
		return nil
	}
	f := b.conn.Formatter()
	cmd := sql.NewCommand(b.conn, "UPDATE ", f.TableName(b.table), " SET ")
	for i, c := range b.columns {
		if i > 0 {
			cmd.WriteString(", ")
		}
		cmd.WriteString(f.QuoteIdent(c.Name) + " = ").WriteParam(param(c, vp.GetValue(c)))
	}
	cmd.WriteString(" WHERE ")
	for i, c := range b.table.PrimaryKeys {
		if i > 0 {
			cmd.WriteString(" AND ")
		}
		cmd.WriteString(f.QuoteIdent(c.Name) + " = ").WriteParam(param(c, vp.GetValue(c)))
	}
	return cmd
}

// LastInsertID builds the statement reading back the identity generated by
// the previous insert on the connection.
type LastInsertID struct {
	conn sql.Connector
	text string
}

// Command returns the read-back statement.
func (b *LastInsertID) Command() *sql.Command {
	return sql.NewCommand(b.conn, b.text)
}
