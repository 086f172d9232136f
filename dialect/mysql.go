package dialect

import (
	"strings"

	"github.com/syssam/tabula/schema"
)

// mysqlFormatter renders MySQL and MariaDB syntax.
type mysqlFormatter struct{}

var mysqlLiterals = literalStyle{
	quote:      func(s string) string { return "'" + escapeMySQL(s) + "'" },
	bytes:      hexBlob,
	boolean:    intBool,
	timeLayout: "2006-01-02 15:04:05.999999",
}

// escapeMySQL escapes both single quotes (by doubling) and backslashes,
// which MySQL treats as escape characters by default.
func escapeMySQL(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", "''")
}

func (mysqlFormatter) Dialect() string { return MySQL }

func (mysqlFormatter) QuoteIdent(name string) string { return quoteWith(name, '`') }

func (mysqlFormatter) Placeholder(string, int) string { return "?" }

func (mysqlFormatter) Literal(v any, t schema.Type) (string, error) {
	return renderLiteral(v, t, mysqlLiterals)
}

// TableName renders database.table; MySQL has no separate catalog level, so
// the schema, when set, names the database.
func (f mysqlFormatter) TableName(t *schema.Table) string {
	db := t.Schema
	if db == "" {
		db = t.Catalog
	}
	return qualify(f.QuoteIdent, db, t.Name)
}

func (f mysqlFormatter) ColumnList(cols []*schema.Column) string {
	return columnList(f.QuoteIdent, cols)
}

func (mysqlFormatter) Separator() string { return ";\n" }

func (mysqlFormatter) LastInsertID(*schema.Table) string { return "SELECT LAST_INSERT_ID()" }

func (f mysqlFormatter) RoutineCall(name string) (string, error) {
	return "CALL " + f.QuoteIdent(name) + "(", nil
}
