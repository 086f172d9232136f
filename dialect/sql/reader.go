package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/syssam/tabula/schema"
)

// Reader is a forward-only cursor over the result sets of a command. Each
// row is scanned once on Next; the typed getters convert the scanned values.
type Reader struct {
	rows    ColumnScanner
	columns []string
	ordinal map[string]int
	fold    cases.Caser
	values  []any
	err     error
	cancel  context.CancelFunc
}

// NewReader wraps rows, positioned on their first result set.
func NewReader(rows ColumnScanner) (*Reader, error) {
	r := &Reader{rows: rows, fold: cases.Fold()}
	if err := r.load(); err != nil {
		rows.Close()
		return nil, err
	}
	return r, nil
}

// load reads the columns of the current result set.
func (r *Reader) load() error {
	columns, err := r.rows.Columns()
	if err != nil {
		return fmt.Errorf("dialect/sql: reading columns: %w", err)
	}
	r.columns = columns
	r.values = nil
	r.ordinal = make(map[string]int, len(columns))
	for i, c := range columns {
		k := r.fold.String(c)
		if _, ok := r.ordinal[k]; !ok {
			r.ordinal[k] = i
		}
	}
	return nil
}

// Columns returns the column names of the current result set.
func (r *Reader) Columns() []string { return r.columns }

// Ordinal returns the position of the named column in the current result
// set, matched case-insensitively, or -1.
func (r *Reader) Ordinal(name string) int {
	if i, ok := r.ordinal[r.fold.String(name)]; ok {
		return i
	}
	return -1
}

// Next advances to the next row of the current result set.
func (r *Reader) Next() bool {
	if r.err != nil || !r.rows.Next() {
		r.values = nil
		return false
	}
	values := make([]any, len(r.columns))
	dest := make([]any, len(r.columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := r.rows.Scan(dest...); err != nil {
		r.err = fmt.Errorf("dialect/sql: scanning row: %w", err)
		r.values = nil
		return false
	}
	r.values = values
	return true
}

// NextResult advances to the next result set.
func (r *Reader) NextResult() bool {
	if r.err != nil || !r.rows.NextResultSet() {
		return false
	}
	if err := r.load(); err != nil {
		r.err = err
		return false
	}
	return true
}

// Err returns the error, if any, that was encountered during iteration.
func (r *Reader) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

// Close closes the reader and releases its connection.
func (r *Reader) Close() error {
	err := r.rows.Close()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	return err
}

// Values returns the scanned values of the current row.
func (r *Reader) Values() []any { return r.values }

// Value returns the raw value of column i of the current row.
func (r *Reader) Value(i int) any {
	if i < 0 || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// IsNull reports whether column i of the current row is NULL.
func (r *Reader) IsNull(i int) bool {
	return r.Value(i) == nil
}

// ErrNull is returned by the typed getters for NULL values.
var ErrNull = errors.New("dialect/sql: value is null")

func (r *Reader) typed(i int, t schema.Type) (any, error) {
	v := r.Value(i)
	if v == nil {
		return nil, ErrNull
	}
	return schema.Convert(v, t)
}

// Int64 returns column i as an int64.
func (r *Reader) Int64(i int) (int64, error) {
	v, err := r.typed(i, schema.TypeInt64)
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// Float64 returns column i as a float64.
func (r *Reader) Float64(i int) (float64, error) {
	v, err := r.typed(i, schema.TypeFloat64)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// Bool returns column i as a bool.
func (r *Reader) Bool(i int) (bool, error) {
	v, err := r.typed(i, schema.TypeBool)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// String returns column i as a string.
func (r *Reader) String(i int) (string, error) {
	v, err := r.typed(i, schema.TypeString)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Bytes returns column i as a byte slice.
func (r *Reader) Bytes(i int) ([]byte, error) {
	v, err := r.typed(i, schema.TypeBytes)
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Time returns column i as a time.Time.
func (r *Reader) Time(i int) (time.Time, error) {
	v, err := r.typed(i, schema.TypeTime)
	if err != nil {
		return time.Time{}, err
	}
	return v.(time.Time), nil
}

// UUID returns column i as a uuid.UUID.
func (r *Reader) UUID(i int) (uuid.UUID, error) {
	v, err := r.typed(i, schema.TypeUUID)
	if err != nil {
		return uuid.Nil, err
	}
	return v.(uuid.UUID), nil
}
