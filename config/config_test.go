package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula/dialect"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	write(t, path, `
dialect: mysql
dsn: app:${TABULA_TEST_PASSWORD}@tcp(localhost:3306)/app
command_timeout: 5s
batch:
  max_commands: 50
`)
	t.Setenv("TABULA_TEST_PASSWORD", "secret")

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dialect.MySQL, f.Dialect)
	assert.Equal(t, "app:secret@tcp(localhost:3306)/app", f.DSN)

	cfg := f.Config()
	assert.Equal(t, 50, cfg.MaxCommandsPerBatch)
	assert.Equal(t, 65535, cfg.MaxParametersPerCommand, "unset limits take the dialect default")
	assert.Equal(t, 4<<20, cfg.MaxCommandLength)
	assert.Equal(t, 5*time.Second, cfg.CommandTimeout)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing dialect", "dsn: x"},
		{"unknown dialect", "dialect: oracle"},
		{"unknown field", "dialect: sqlite\npool: 3"},
		{"negative limit", "dialect: sqlite\nbatch:\n  max_commands: -1"},
		{"negative timeout", "dialect: sqlite\ncommand_timeout: -1s"},
		{"bad duration", "dialect: sqlite\ncommand_timeout: soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestParseNormalizesDialect(t *testing.T) {
	f, err := Parse([]byte("dialect: sqlite3\ndsn: ':memory:'"))
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, f.Dialect)
	assert.Equal(t, 1, f.Config().MaxCommandsPerBatch)
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN("app:pw@tcp(db:3306)/app?charset=utf8mb4")
	require.NoError(t, err)
	assert.Contains(t, dsn, "multiStatements=true")
	assert.Contains(t, dsn, "interpolateParams=true")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	_, err = mysqlDSN("app:pw@tcp(db:3306")
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	f, err := Parse([]byte("dialect: sqlite\ndsn: ':memory:'\nbatch:\n  max_length: 4096"))
	require.NoError(t, err)
	conn, err := Open(context.Background(), f)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		conn.DB().Close()
	})
	assert.Equal(t, dialect.SQLite, conn.Dialect())
	assert.Equal(t, 4096, conn.Config().MaxCommandLength)

	_, err = conn.Exec(context.Background(), "CREATE TABLE t (id INTEGER PRIMARY KEY)", nil)
	require.NoError(t, err)
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	write(t, path, "dialect: sqlite\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloads := make(chan *File, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(f *File) {
			select {
			case reloads <- f:
			default:
			}
		})
	}()

	// The watcher is registered asynchronously; keep writing until a reload
	// carrying the new value is seen.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for seen := false; !seen; {
		select {
		case f := <-reloads:
			seen = f.Batch.MaxCommands == 7
		case <-tick.C:
			write(t, path, "dialect: sqlite\nbatch:\n  max_commands: 7\n")
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
