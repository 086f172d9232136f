package dialect

import (
	"encoding/hex"
	"strconv"

	"github.com/lib/pq"

	"github.com/syssam/tabula/schema"
)

// postgresFormatter renders PostgreSQL syntax, escaping through lib/pq.
type postgresFormatter struct{}

var postgresLiterals = literalStyle{
	quote: pq.QuoteLiteral,
	bytes: func(b []byte) string { return `'\x` + hex.EncodeToString(b) + `'::bytea` },
	boolean: func(b bool) string {
		if b {
			return "TRUE"
		}
		return "FALSE"
	},
	timeLayout: "2006-01-02 15:04:05.999999999Z07:00",
}

func (postgresFormatter) Dialect() string { return Postgres }

func (postgresFormatter) QuoteIdent(name string) string { return pq.QuoteIdentifier(name) }

func (postgresFormatter) Placeholder(_ string, ordinal int) string {
	return "$" + strconv.Itoa(ordinal)
}

func (postgresFormatter) Literal(v any, t schema.Type) (string, error) {
	return renderLiteral(v, t, postgresLiterals)
}

func (f postgresFormatter) TableName(t *schema.Table) string {
	return qualify(f.QuoteIdent, t.Catalog, t.Schema, t.Name)
}

func (f postgresFormatter) ColumnList(cols []*schema.Column) string {
	return columnList(f.QuoteIdent, cols)
}

func (postgresFormatter) Separator() string { return ";\n" }

func (postgresFormatter) LastInsertID(*schema.Table) string { return "SELECT lastval()" }

func (f postgresFormatter) RoutineCall(name string) (string, error) {
	return "SELECT * FROM " + f.QuoteIdent(name) + "(", nil
}
