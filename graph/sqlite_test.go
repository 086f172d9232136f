package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/schema"
)

var ddl = []string{
	`CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE)`,
	`CREATE TABLE profiles (id INTEGER PRIMARY KEY, author_id INTEGER NOT NULL REFERENCES authors(id), bio TEXT)`,
	`CREATE TABLE books (id INTEGER PRIMARY KEY, author_id INTEGER NOT NULL REFERENCES authors(id), title TEXT)`,
	`CREATE TABLE tags (book_id INTEGER NOT NULL REFERENCES books(id), label TEXT)`,
	`CREATE TABLE enrollments (student_id INTEGER, course_id INTEGER, grade TEXT, PRIMARY KEY (student_id, course_id))`,
}

// openSQLite returns a connector on a fresh in-memory database. The
// connector pins a single connection, which owns the database.
func openSQLite(t *testing.T) *sql.Conn {
	t.Helper()
	ctx := context.Background()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, conn.Open(ctx))
	t.Cleanup(func() {
		conn.Close()
		conn.DB().Close()
	})
	for _, stmt := range append(ddl, "PRAGMA foreign_keys = ON") {
		_, err := conn.Exec(ctx, stmt, nil)
		require.NoError(t, err)
	}
	return conn
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	cache := schema.NewCache()
	authors, err := New[Author](conn, cache)
	require.NoError(t, err)

	author := &Author{Name: "Ann"}
	assert.True(t, authors.IsNew(author))
	require.NoError(t, authors.Insert(ctx, author))
	assert.False(t, authors.IsNew(author))
	assert.NotZero(t, author.ID)

	author.Name = "Anna"
	require.NoError(t, authors.Update(ctx, author))
	got, err := authors.SelectOne(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name)

	require.NoError(t, authors.Delete(ctx, got))
	_, err = authors.SelectOne(ctx, author.ID)
	require.Error(t, err)
	assert.True(t, tabula.IsNotFound(err))
}

func TestSQLiteAggregate(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	cache := schema.NewCache()
	authors, err := New[Author](conn, cache)
	require.NoError(t, err)
	books, err := New[Book](conn, cache)
	require.NoError(t, err)

	author := &Author{
		Name:    "Ann",
		Books:   []*Book{{Title: "A"}, {Title: "B", Tags: []*Tag{{Label: "x"}, {Label: "y"}}}},
		Profile: &Profile{Bio: "bio"},
	}
	other := &Author{Name: "Bob", Books: []*Book{{Title: "C"}}}
	require.NoError(t, authors.Save(ctx, author, other))

	got, err := authors.SelectOne(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, got.Books, 2)
	titles := []string{got.Books[0].Title, got.Books[1].Title}
	assert.ElementsMatch(t, []string{"A", "B"}, titles)
	for _, b := range got.Books {
		assert.Equal(t, author.ID, b.AuthorID)
		if b.Title == "B" {
			assert.Len(t, b.Tags, 2)
		}
	}
	require.NotNil(t, got.Profile)
	assert.Equal(t, "bio", got.Profile.Bio)

	c, err := books.Select(ctx, `"title" = @1`, "C")
	require.NoError(t, err)
	require.Len(t, c, 1)
	require.NotNil(t, c[0].Author)
	assert.Equal(t, "Bob", c[0].Author.Name)

	// Deleting the author removes everything it owns, loaded or not.
	require.NoError(t, authors.Delete(ctx, &Author{ID: author.ID}))
	left, err := books.Select(ctx, "")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "C", left[0].Title)

	require.NoError(t, authors.Delete(ctx, other))
	left, err = books.Select(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, left)
	all, err := authors.Select(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLiteCompositeKey(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	stats := sql.NewStatsConnector(conn)
	enrollments, err := New[Enrollment](stats, schema.NewCache())
	require.NoError(t, err)
	require.Equal(t, 1, conn.Config().MaxCommandsPerBatch)

	rows := []*Enrollment{
		{StudentID: 1, CourseID: 1, Grade: "A"},
		{StudentID: 1, CourseID: 2, Grade: "B"},
		{StudentID: 2, CourseID: 1, Grade: "C"},
	}
	require.NoError(t, enrollments.Insert(ctx, rows...))
	assert.Equal(t, int64(3), stats.Counters().Snapshot().Execs, "one round trip per command")

	e, err := enrollments.SelectOne(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "B", e.Grade)

	e.Grade = "A+"
	require.NoError(t, enrollments.Save(ctx, e))
	e, err = enrollments.SelectOne(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "A+", e.Grade)

	stats.Counters().Reset()
	require.NoError(t, enrollments.Delete(ctx, rows...))
	assert.Equal(t, int64(1), stats.Counters().Snapshot().RoundTrips(), "deletes are combined into one command")

	left, err := enrollments.Select(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestSQLiteBatchLimit(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	conn.SetConfig(dialect.Config{MaxCommandsPerBatch: 1})
	stats := sql.NewStatsConnector(conn)
	authors, err := New[Author](stats, schema.NewCache())
	require.NoError(t, err)

	rows := []*Author{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	require.NoError(t, authors.Insert(ctx, rows...))
	s := stats.Counters().Snapshot()
	assert.Equal(t, int64(3), s.Execs)
	assert.Equal(t, int64(3), s.Queries, "identity values are read after each insert")
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
	assert.NotEqual(t, rows[1].ID, rows[2].ID)
}

func TestSQLiteConstraint(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	authors, err := New[Author](conn, schema.NewCache())
	require.NoError(t, err)

	require.NoError(t, authors.Insert(ctx, &Author{Name: "Ann"}))
	err = authors.Insert(ctx, &Author{Name: "Ann"})
	require.Error(t, err)
	assert.True(t, sql.IsUniqueConstraintError(err))
}

func TestSQLiteTransaction(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	authors, err := New[Author](conn, schema.NewCache())
	require.NoError(t, err)

	require.NoError(t, conn.Begin(ctx, nil))
	require.NoError(t, authors.Insert(ctx, &Author{Name: "kept"}))
	require.NoError(t, conn.Begin(ctx, nil))
	require.NoError(t, authors.Insert(ctx, &Author{Name: "dropped"}))
	require.NoError(t, conn.Rollback())
	require.NoError(t, conn.Commit())

	all, err := authors.Select(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "kept", all[0].Name)
}
