package gen

import (
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultFilename is the name of the file written in each package.
const DefaultFilename = "tabula_mapping.go"

// Config holds the generator settings.
type Config struct {
	// Header is the comment written at the top of every generated file.
	Header string
	// Filename is the base name of the file written in each package.
	Filename string
	// Workers bounds the number of files written in parallel.
	Workers int
}

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithFilename sets the base name of the generated files.
func WithFilename(name string) Option {
	return func(c *Config) error {
		switch {
		case name == "":
			return NewConfigError("Filename", nil, "filename cannot be empty")
		case filepath.Base(name) != name:
			return NewConfigError("Filename", name, "filename must not contain a directory")
		case !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go"):
			return NewConfigError("Filename", name, "filename must be a non-test .go file")
		}
		c.Filename = name
		return nil
	}
}

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// NewConfig returns the configuration built from opts.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Header:   "Code generated by tabulagen. DO NOT EDIT.",
		Filename: DefaultFilename,
		Workers:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
