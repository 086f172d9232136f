package sql

import (
	"errors"
	"slices"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ConstraintKind classifies a constraint violation reported by the backend.
type ConstraintKind uint8

// Constraint kinds.
const (
	UniqueConstraint ConstraintKind = iota + 1
	ForeignKeyConstraint
	CheckConstraint
)

// ConstraintError is returned by Classify for backend errors caused by a
// constraint violation.
type ConstraintError struct {
	Kind ConstraintKind
	err  error
}

// Error implements the error interface.
func (e *ConstraintError) Error() string { return e.err.Error() }

// Unwrap implements the errors.Wrapper interface.
func (e *ConstraintError) Unwrap() error { return e.err }

// Classify wraps err with a ConstraintError when it reports a constraint
// violation, and returns it unchanged otherwise.
func Classify(err error) error {
	var kind ConstraintKind
	switch {
	case err == nil:
		return nil
	case IsUniqueConstraintError(err):
		kind = UniqueConstraint
	case IsForeignKeyConstraintError(err):
		kind = ForeignKeyConstraint
	case IsCheckConstraintError(err):
		kind = CheckConstraint
	default:
		return err
	}
	return &ConstraintError{Kind: kind, err: err}
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	var e *ConstraintError
	return errors.As(err, &e) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// errorCoder is implemented by drivers exposing string error codes.
type errorCoder interface {
	Code() string
}

// errorNumberer is implemented by drivers exposing numeric error codes.
type errorNumberer interface {
	Number() uint16
}

// sqlStateError is implemented by errors carrying SQLSTATE codes.
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// constraint describes how each driver family reports one violation kind.
type constraint struct {
	state    string
	numbers  []uint16
	messages []string
}

var (
	uniqueViolation = constraint{
		state:    pgUniqueViolation,
		numbers:  []uint16{mysqlDuplicateEntry},
		messages: []string{"Error 1062", "violates unique constraint", "UNIQUE constraint failed"},
	}
	foreignKeyViolation = constraint{
		state:    pgForeignKeyViolation,
		numbers:  []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		messages: []string{"Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"},
	}
	checkViolation = constraint{
		state:    pgCheckViolation,
		numbers:  []uint16{mysqlCheckConstraintViolate},
		messages: []string{"Error 3819", "violates check constraint", "CHECK constraint failed"},
	}
)

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
func IsUniqueConstraintError(err error) bool {
	return uniqueViolation.match(err)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	return foreignKeyViolation.match(err)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return checkViolation.match(err)
}

func (c constraint) match(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == c.state
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return slices.Contains(c.numbers, myErr.Number)
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == c.state {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == c.state {
		return true
	}
	if e, ok := asError[errorNumberer](err); ok {
		for _, n := range c.numbers {
			if e.Number() == n {
				return true
			}
		}
	}
	// Fallback to string matching for drivers that don't implement interfaces.
	msg := err.Error()
	for _, m := range c.messages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}
