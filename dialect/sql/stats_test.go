package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula/dialect"
)

func TestStatsConnector(t *testing.T) {
	c, mock := mockConn(t, dialect.SQLite)
	var slow []string
	s := NewStatsConnector(c,
		WithSlowThreshold(0),
		WithSlowFunc(func(_ context.Context, text string, _ []any, _ time.Duration) {
			slow = append(slow, text)
		}),
	)
	ctx := context.Background()

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rows, err := s.Query(ctx, "SELECT 1", nil)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	mock.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = s.Exec(ctx, "DELETE FROM t", nil)
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM u").WillReturnError(errors.New("no such table: u"))
	_, err = s.Exec(ctx, "DELETE FROM u", nil)
	require.Error(t, err)

	snap := s.Counters().Snapshot()
	assert.EqualValues(t, 1, snap.Queries)
	assert.EqualValues(t, 2, snap.Execs)
	assert.EqualValues(t, 3, snap.RoundTrips())
	assert.EqualValues(t, 1, snap.Failed)
	assert.EqualValues(t, 3, snap.Slow)
	assert.Equal(t, []string{"SELECT 1", "DELETE FROM t", "DELETE FROM u"}, slow)
	assert.Contains(t, snap.String(), "round_trips=3 queries=1 execs=2 failed=1")

	s.SetSlowThreshold(time.Hour)
	assert.Equal(t, time.Hour, s.SlowThreshold())
	s.Counters().Reset()
	assert.Zero(t, s.Counters().Snapshot().RoundTrips())
	assert.Zero(t, s.Counters().Snapshot().Mean())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsConnectorSlowLog(t *testing.T) {
	c, mock := mockConn(t, dialect.SQLite)
	var buf bytes.Buffer
	s := NewStatsConnector(c, WithSlowThreshold(0), WithSlowLog(slog.New(slog.NewTextHandler(&buf, nil))))
	mock.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 1))
	_, err := s.Exec(context.Background(), "DELETE FROM t", []any{1})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `msg="slow command"`)
	assert.Contains(t, buf.String(), `text="DELETE FROM t"`)
}

func TestDebugConnector(t *testing.T) {
	c, mock := mockConn(t, dialect.MySQL)
	var buf bytes.Buffer
	d := NewDebugConnector(c, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	mock.ExpectExec("DELETE FROM t WHERE id = ?").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	_, err := d.Exec(context.Background(), "DELETE FROM t WHERE id = ?", []any{1})
	require.NoError(t, err)
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rows, err := d.Query(context.Background(), "SELECT 1", nil)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	out := buf.String()
	assert.Contains(t, out, `msg=exec text="DELETE FROM t WHERE id = ?" args=[1]`)
	assert.Contains(t, out, `msg=query text="SELECT 1"`)
	require.NoError(t, mock.ExpectationsWereMet())
}
