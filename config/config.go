// Package config loads connector settings from YAML files.
//
// A configuration file names the dialect, the data source and, optionally,
// the batch limits overriding the dialect defaults:
//
//	dialect: mysql
//	dsn: app:${DB_PASSWORD}@tcp(localhost:3306)/app
//	command_timeout: 5s
//	batch:
//	  max_commands: 50
//	  max_parameters: 2000
//	  max_length: 1048576
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
)

// File is the content of a configuration file.
type File struct {
	Dialect        string        `yaml:"dialect"`
	DSN            string        `yaml:"dsn"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	Batch          Batch         `yaml:"batch"`
}

// Batch holds the batch limits. Zero fields take the dialect default.
type Batch struct {
	MaxCommands   int `yaml:"max_commands"`
	MaxParameters int `yaml:"max_parameters"`
	MaxLength     int `yaml:"max_length"`
}

// Config returns the connector configuration of the file, with the dialect
// defaults filling the fields it leaves unset.
func (f *File) Config() dialect.Config {
	cfg := dialect.Config{
		MaxCommandsPerBatch:     f.Batch.MaxCommands,
		MaxParametersPerCommand: f.Batch.MaxParameters,
		MaxCommandLength:        f.Batch.MaxLength,
		CommandTimeout:          f.CommandTimeout,
	}
	return cfg.Merge(dialect.DefaultConfig(f.Dialect))
}

// Load reads and validates the configuration file at path. Environment
// variables referenced in the DSN as $VAR or ${VAR} are expanded.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse is like Load but reads the configuration from data.
func Parse(data []byte) (*File, error) {
	f := &File{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	f.Dialect = dialect.Name(f.Dialect)
	f.DSN = os.ExpandEnv(f.DSN)
	return f, nil
}

func (f *File) validate() error {
	if f.Dialect == "" {
		return errors.New("config: missing dialect")
	}
	if _, err := dialect.For(f.Dialect); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if f.CommandTimeout < 0 {
		return fmt.Errorf("config: negative command timeout %s", f.CommandTimeout)
	}
	if f.Batch.MaxCommands < 0 || f.Batch.MaxParameters < 0 || f.Batch.MaxLength < 0 {
		return errors.New("config: negative batch limit")
	}
	return nil
}

// Open returns an opened connector for the file. opts are applied after the
// file configuration.
func Open(ctx context.Context, f *File, opts ...sql.Option) (*sql.Conn, error) {
	dsn := f.DSN
	if f.Dialect == dialect.MySQL {
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}
	conn, err := sql.Open(f.Dialect, dsn, append([]sql.Option{sql.WithConfig(f.Config())}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := conn.Open(ctx); err != nil {
		return nil, errors.Join(err, conn.DB().Close())
	}
	return conn, nil
}

// mysqlDSN enables the driver features batching relies on: several
// statements per round trip, which the server only accepts for client side
// interpolated parameters, and time values scanned as time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("config: mysql dsn: %w", err)
	}
	cfg.MultiStatements = true
	cfg.InterpolateParams = true
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}
