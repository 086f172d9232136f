package builder

import (
	"strings"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/schema"
)

// param returns the parameter bound for column c.
func param(c *schema.Column, v any) *sql.Parameter {
	return &sql.Parameter{
		Name:      c.Name,
		Type:      c.Type,
		Size:      c.Size,
		Precision: c.Precision,
		Scale:     c.Scale,
		Value:     v,
	}
}

// selectHead renders "SELECT <columns> FROM <table>".
func selectHead(conn sql.Connector, t *schema.Table) string {
	f := conn.Formatter()
	return "SELECT " + f.ColumnList(t.Columns) + " FROM " + f.TableName(t)
}

// SelectOne builds primary key lookups.
type SelectOne struct {
	conn  sql.Connector
	table *schema.Table
	head  string
}

func newSelectOne(conn sql.Connector, t *schema.Table) *SelectOne {
	return &SelectOne{conn: conn, table: t, head: selectHead(conn, t) + " WHERE "}
}

// Command returns the lookup of the row with the given primary key values,
// given in key order. Each id is converted to its column type.
func (b *SelectOne) Command(ids ...any) (*sql.Command, error) {
	keys := b.table.PrimaryKeys
	if len(ids) != len(keys) {
		return nil, tabula.NewArgumentError("select one", "type %s expects %d ids, got %d", b.table.TypeName(), len(keys), len(ids))
	}
	f := b.conn.Formatter()
	cmd := sql.NewCommand(b.conn, b.head)
	for i, c := range keys {
		v, err := schema.Convert(ids[i], c.Type)
		if err != nil {
			return nil, tabula.NewArgumentError("select one", "id %d: %v", i+1, err)
		}
		if i > 0 {
			cmd.WriteString(" AND ")
		}
		cmd.WriteString(f.QuoteIdent(c.Name) + " = ").WriteParam(param(c, v))
	}
	return cmd, nil
}

// Select builds filtered selects.
type Select struct {
	conn  sql.Connector
	table *schema.Table
	head  string
}

func newSelect(conn sql.Connector, t *schema.Table) *Select {
	return &Select{conn: conn, table: t, head: selectHead(conn, t)}
}

// Command returns the select of the rows matching where, a SQL predicate
// referencing params positionally as @1, @2 and so on. An empty where
// selects every row; params without a where clause are rejected.
func (b *Select) Command(where string, params ...any) (*sql.Command, error) {
	where = strings.TrimSpace(where)
	if where == "" {
		if len(params) > 0 {
			return nil, tabula.NewArgumentError("select", "%d parameters given without a where clause", len(params))
		}
		return sql.NewCommand(b.conn, b.head), nil
	}
	cmd := sql.NewCommand(b.conn, b.head, " WHERE ")
	if err := writeClause(cmd, where, params, b.conn.Formatter().Dialect() == dialect.MySQL); err != nil {
		return nil, err
	}
	return cmd, nil
}

// writeClause appends where to cmd, replacing every @N outside of quoted
// text with a placeholder bound to params[N-1]. With backslash set, a
// backslash inside a string literal escapes the byte after it.
func writeClause(cmd *sql.Command, where string, params []any, backslash bool) error {
	var (
		quote byte
		start int
	)
	for i := 0; i < len(where); i++ {
		ch := where[i]
		switch {
		case quote != 0:
			if ch == '\\' && backslash && quote != '`' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case ch == '@':
			j := i + 1
			for j < len(where) && where[j] >= '0' && where[j] <= '9' {
				j++
			}
			if j == i+1 {
				continue
			}
			n := 0
			for _, d := range where[i+1 : j] {
				n = n*10 + int(d-'0')
			}
			if n < 1 || n > len(params) {
				return tabula.NewArgumentError("select", "placeholder @%d has no parameter (%d given)", n, len(params))
			}
			cmd.WriteString(where[start:i])
			cmd.WriteParam(&sql.Parameter{Name: where[i+1 : j], Value: params[n-1]})
			start = j
			i = j - 1
		}
	}
	cmd.WriteString(where[start:])
	return nil
}
