package dialect_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/schema"
)

type Invoice struct {
	ID     int64
	Number string
}

func (Invoice) Mapping(m *schema.Mapping) {
	m.Table("invoices").Schema("billing")
	m.Column("ID").PrimaryKey().Identity()
	m.Column("Number")
}

func TestName(t *testing.T) {
	assert.Equal(t, dialect.SQLite, dialect.Name("sqlite3"))
	assert.Equal(t, dialect.Postgres, dialect.Name("pgx"))
	assert.Equal(t, dialect.Postgres, dialect.Name("postgres"))
	assert.Equal(t, dialect.MySQL, dialect.Name("mysql"))
	assert.Equal(t, "oracle", dialect.Name("oracle"))
}

func TestFor(t *testing.T) {
	for _, name := range []string{dialect.MySQL, dialect.Postgres, dialect.SQLite} {
		f, err := dialect.For(name)
		require.NoError(t, err)
		assert.Equal(t, name, f.Dialect())
	}
	_, err := dialect.For("oracle")
	assert.Error(t, err)
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		dialect string
		in      string
		want    string
	}{
		{dialect.MySQL, "order", "`order`"},
		{dialect.MySQL, "we`ird", "`we``ird`"},
		{dialect.Postgres, "order", `"order"`},
		{dialect.Postgres, `we"ird`, `"we""ird"`},
		{dialect.SQLite, "order", `"order"`},
	}
	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.in, func(t *testing.T) {
			f, err := dialect.For(tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.QuoteIdent(tt.in))
		})
	}
}

func TestPlaceholder(t *testing.T) {
	pg, _ := dialect.For(dialect.Postgres)
	my, _ := dialect.For(dialect.MySQL)
	lite, _ := dialect.For(dialect.SQLite)
	assert.Equal(t, "$3", pg.Placeholder("id", 3))
	assert.Equal(t, "?", my.Placeholder("id", 3))
	assert.Equal(t, "?", lite.Placeholder("id", 3))
}

func TestLiteral(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	tests := []struct {
		name    string
		dialect string
		v       any
		typ     schema.Type
		want    string
	}{
		{"mysql string", dialect.MySQL, `O'Brien\`, schema.TypeString, `'O''Brien\\'`},
		{"postgres string", dialect.Postgres, "O'Brien", schema.TypeString, `'O''Brien'`},
		{"sqlite string", dialect.SQLite, "O'Brien", schema.TypeString, `'O''Brien'`},
		{"injection attempt", dialect.SQLite, "1); DROP TABLE x; --", schema.TypeString, `'1); DROP TABLE x; --'`},
		{"int from string", dialect.MySQL, "42", schema.TypeInt64, "42"},
		{"int", dialect.Postgres, int32(-7), schema.TypeInt32, "-7"},
		{"float", dialect.SQLite, 2.5, schema.TypeFloat64, "2.5"},
		{"nil", dialect.MySQL, nil, schema.TypeString, "NULL"},
		{"bool mysql", dialect.MySQL, true, schema.TypeBool, "1"},
		{"bool postgres", dialect.Postgres, false, schema.TypeBool, "FALSE"},
		{"bytes sqlite", dialect.SQLite, []byte{0xde, 0xad}, schema.TypeBytes, "X'dead'"},
		{"bytes postgres", dialect.Postgres, []byte{0xde, 0xad}, schema.TypeBytes, `'\xdead'::bytea`},
		{"uuid", dialect.Postgres, id.String(), schema.TypeUUID, "'6ba7b810-9dad-11d1-80b4-00c04fd430c8'"},
		{"time mysql", dialect.MySQL, at, schema.TypeTime, "'2024-05-06 07:08:09'"},
		{"untyped", dialect.SQLite, uint8(3), "", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := dialect.For(tt.dialect)
			require.NoError(t, err)
			got, err := f.Literal(tt.v, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	f, _ := dialect.For(dialect.SQLite)
	_, err := f.Literal(map[string]int{}, "")
	assert.Error(t, err)
	_, err = f.Literal("x", schema.TypeInt64)
	assert.Error(t, err)
}

func TestTableName(t *testing.T) {
	cache := schema.NewCache()
	tbl, err := cache.For(Invoice{})
	require.NoError(t, err)

	pg, _ := dialect.For(dialect.Postgres)
	my, _ := dialect.For(dialect.MySQL)
	lite, _ := dialect.For(dialect.SQLite)
	assert.Equal(t, `"billing"."invoices"`, pg.TableName(tbl))
	assert.Equal(t, "`billing`.`invoices`", my.TableName(tbl))
	assert.Equal(t, `"billing"."invoices"`, lite.TableName(tbl))
	assert.Equal(t, `"id", "number"`, pg.ColumnList(tbl.Columns))
}

func TestStatements(t *testing.T) {
	my, _ := dialect.For(dialect.MySQL)
	pg, _ := dialect.For(dialect.Postgres)
	lite, _ := dialect.For(dialect.SQLite)
	assert.Equal(t, "SELECT LAST_INSERT_ID()", my.LastInsertID(nil))
	assert.Equal(t, "SELECT lastval()", pg.LastInsertID(nil))
	assert.Equal(t, "SELECT last_insert_rowid()", lite.LastInsertID(nil))

	call, err := my.RoutineCall("top_customers")
	require.NoError(t, err)
	assert.Equal(t, "CALL `top_customers`(", call)
	call, err = pg.RoutineCall("top_customers")
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "top_customers"(`, call)
	_, err = lite.RoutineCall("top_customers")
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	my := dialect.DefaultConfig(dialect.MySQL)
	assert.Equal(t, 100, my.MaxCommandsPerBatch)
	assert.Equal(t, 1, dialect.DefaultConfig(dialect.Postgres).MaxCommandsPerBatch)

	merged := dialect.Config{MaxCommandsPerBatch: 5, CommandTimeout: time.Second}.Merge(my)
	assert.Equal(t, 5, merged.MaxCommandsPerBatch)
	assert.Equal(t, my.MaxParametersPerCommand, merged.MaxParametersPerCommand)
	assert.Equal(t, time.Second, merged.CommandTimeout)
}
