package sql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/schema"
)

func TestCommandText(t *testing.T) {
	tests := []struct {
		dialect string
		want    string
	}{
		{dialect.MySQL, "UPDATE `t` SET `a` = ?, `b` = ? WHERE `id` = ?"},
		{dialect.Postgres, `UPDATE "t" SET "a" = $1, "b" = $2 WHERE "id" = $3`},
		{dialect.SQLite, `UPDATE "t" SET "a" = ?, "b" = ? WHERE "id" = ?`},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			c, _ := mockConn(t, tt.dialect)
			cmd := NewCommand(c, "UPDATE ")
			cmd.WriteIdent("t").WriteString(" SET ").WriteIdent("a").WriteString(" = ").
				WriteParam(&Parameter{Name: "a", Value: 1}).
				WriteString(", ").WriteIdent("b").WriteString(" = ").
				WriteParam(&Parameter{Name: "b", Value: "x"}).
				WriteString(" WHERE ").WriteIdent("id").WriteString(" = ").
				WriteParam(&Parameter{Name: "id", Type: schema.TypeInt64, Value: 7})
			assert.Equal(t, tt.want, cmd.Text())
			assert.Equal(t, []any{1, "x", 7}, cmd.Args())
			assert.Len(t, cmd.Params(), 3)
		})
	}
}

func TestCommandRenderOffset(t *testing.T) {
	c, _ := mockConn(t, dialect.Postgres)
	cmd := NewCommand(c, "DELETE FROM t WHERE a = ")
	cmd.WriteParam(&Parameter{Name: "a", Value: 1}).WriteString(" AND b = ").WriteParam(&Parameter{Name: "b", Value: 2})
	assert.Equal(t, "DELETE FROM t WHERE a = $4 AND b = $5", cmd.render(3))
}

func TestCommandSetText(t *testing.T) {
	c, mock := mockConn(t, dialect.Postgres)
	cmd := NewCommand(c)
	cmd.SetText("SELECT count(*) FROM t WHERE a > $1")
	cmd.AddParameter(&Parameter{Name: "a", Value: 10})
	assert.Equal(t, "SELECT count(*) FROM t WHERE a > $1", cmd.Text())

	mock.ExpectQuery("SELECT count(*) FROM t WHERE a > $1").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	v, err := cmd.ExecScalar(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommandExecNonQuery(t *testing.T) {
	c, mock := mockConn(t, dialect.SQLite)
	cmd := NewCommand(c, "DELETE FROM t")
	mock.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 4))
	n, err := cmd.ExecNonQuery(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	mock.ExpectExec("DELETE FROM t").WillReturnError(errors.New("UNIQUE constraint failed: t.a"))
	_, err = cmd.ExecNonQuery(context.Background())
	require.Error(t, err)
	assert.True(t, tabula.IsCommandError(err))
	assert.True(t, IsUniqueConstraintError(err))
	var cerr *tabula.CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "DELETE FROM t", cerr.Text)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommandExecScalarEmpty(t *testing.T) {
	c, mock := mockConn(t, dialect.MySQL)
	mock.ExpectQuery("SELECT a FROM t").WillReturnRows(sqlmock.NewRows([]string{"a"}))
	v, err := NewCommand(c, "SELECT a FROM t").ExecScalar(context.Background())
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCommandClosed(t *testing.T) {
	c, _ := mockConn(t, dialect.MySQL)
	cmd := NewCommand(c, "SELECT 1")
	require.NoError(t, cmd.Close())
	_, err := cmd.ExecNonQuery(context.Background())
	assert.ErrorIs(t, err, ErrCommandClosed)
	_, err = cmd.ExecReader(context.Background())
	assert.ErrorIs(t, err, ErrCommandClosed)
}

func TestCommandTimeout(t *testing.T) {
	c, _ := mockConn(t, dialect.MySQL, WithConfig(dialect.Config{CommandTimeout: 5 * time.Second}))
	cmd := NewCommand(c, "SELECT 1")
	assert.Equal(t, 5*time.Second, cmd.Timeout())
	cmd.SetTimeout(time.Second)
	assert.Equal(t, time.Second, cmd.Timeout())
	cmd.SetTimeout(0)
	assert.Equal(t, 5*time.Second, cmd.Timeout())
}

func TestReader(t *testing.T) {
	c, mock := mockConn(t, dialect.MySQL)
	created := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	mock.ExpectQuery("SELECT * FROM t").WillReturnRows(
		sqlmock.NewRows([]string{"ID", "Name", "score", "active", "created", "note"}).
			AddRow(int64(1), []byte("Alice"), 9.5, int64(1), created, nil),
		sqlmock.NewRows([]string{"total"}).AddRow("42"),
	)
	r, err := NewCommand(c, "SELECT * FROM t").ExecReader(context.Background())
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 0, r.Ordinal("id"))
	assert.Equal(t, 1, r.Ordinal("NAME"))
	assert.Equal(t, -1, r.Ordinal("missing"))

	require.True(t, r.Next())
	id, err := r.Int64(r.Ordinal("id"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)
	name, err := r.String(1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)
	score, err := r.Float64(2)
	require.NoError(t, err)
	assert.Equal(t, 9.5, score)
	active, err := r.Bool(3)
	require.NoError(t, err)
	assert.True(t, active)
	ts, err := r.Time(4)
	require.NoError(t, err)
	assert.True(t, created.Equal(ts))
	assert.True(t, r.IsNull(5))
	_, err = r.String(5)
	assert.ErrorIs(t, err, ErrNull)
	assert.Len(t, r.Values(), 6)
	assert.False(t, r.Next())

	require.True(t, r.NextResult())
	assert.Equal(t, []string{"total"}, r.Columns())
	require.True(t, r.Next())
	total, err := r.Int64(0)
	require.NoError(t, err)
	assert.EqualValues(t, 42, total)
	assert.False(t, r.NextResult())
	require.NoError(t, r.Err())
	require.NoError(t, mock.ExpectationsWereMet())
}
