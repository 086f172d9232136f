package dialect

import (
	"fmt"

	"github.com/syssam/tabula/schema"
)

// sqliteFormatter renders SQLite syntax.
type sqliteFormatter struct{}

var sqliteLiterals = literalStyle{
	quote:      func(s string) string { return quoteWith(s, '\'') },
	bytes:      hexBlob,
	boolean:    intBool,
	timeLayout: "2006-01-02 15:04:05.999999999-07:00",
}

func (sqliteFormatter) Dialect() string { return SQLite }

func (sqliteFormatter) QuoteIdent(name string) string { return quoteWith(name, '"') }

func (sqliteFormatter) Placeholder(string, int) string { return "?" }

func (sqliteFormatter) Literal(v any, t schema.Type) (string, error) {
	return renderLiteral(v, t, sqliteLiterals)
}

// TableName renders schema.table; the schema names an attached database.
func (f sqliteFormatter) TableName(t *schema.Table) string {
	return qualify(f.QuoteIdent, t.Schema, t.Name)
}

func (f sqliteFormatter) ColumnList(cols []*schema.Column) string {
	return columnList(f.QuoteIdent, cols)
}

func (sqliteFormatter) Separator() string { return ";\n" }

func (sqliteFormatter) LastInsertID(*schema.Table) string { return "SELECT last_insert_rowid()" }

func (sqliteFormatter) RoutineCall(name string) (string, error) {
	return "", fmt.Errorf("dialect: sqlite has no stored routines (calling %q)", name)
}
