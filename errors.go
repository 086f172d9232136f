package tabula

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for the engine's failure kinds.
var (
	// ErrConnectorNotInitialized is returned when a connector is used before
	// it was opened or after it was closed.
	ErrConnectorNotInitialized = errors.New("tabula: connector not initialized")

	// ErrCanNotOpenConnection is returned when the connector fails to obtain
	// a connection from the underlying pool.
	ErrCanNotOpenConnection = errors.New("tabula: can not open connection")

	// ErrCanNotCloseConnection is returned when releasing the connection fails.
	ErrCanNotCloseConnection = errors.New("tabula: can not close connection")

	// ErrTransactionStackEmpty is returned by Commit or Rollback when no
	// transaction is open on the connector.
	ErrTransactionStackEmpty = errors.New("tabula: transaction stack empty")

	// ErrNoPrimaryKeys is returned when a keyed operation is requested for a
	// type that declares no primary key.
	ErrNoPrimaryKeys = errors.New("tabula: no primary keys")

	// ErrMissingTableMapping is returned when a type has no table mapping.
	ErrMissingTableMapping = errors.New("tabula: missing table mapping")

	// ErrMissingRoutineMapping is returned when a type has no routine mapping.
	ErrMissingRoutineMapping = errors.New("tabula: missing routine mapping")

	// ErrInvalidArgument is returned when an operation is called with
	// arguments that can never succeed.
	ErrInvalidArgument = errors.New("tabula: invalid argument")

	// ErrNotFound is returned by key lookups that match no row.
	ErrNotFound = errors.New("tabula: entity not found")
)

// MappingKind identifies which part of a type mapping is missing or invalid.
type MappingKind int

// Mapping error kinds.
const (
	NoPrimaryKeys MappingKind = iota
	MissingTable
	MissingRoutine
)

// MappingError reports a construction-time mapping problem for a type.
type MappingError struct {
	Type string // Go type name
	Kind MappingKind
	Op   string // Operation that required the mapping, if any
}

// Error returns the error string.
func (e *MappingError) Error() string {
	var what string
	switch e.Kind {
	case NoPrimaryKeys:
		what = "declares no primary keys"
	case MissingTable:
		what = "has no table mapping"
	case MissingRoutine:
		what = "has no routine mapping"
	}
	if e.Op != "" {
		return fmt.Sprintf("tabula: %s: type %s %s", e.Op, e.Type, what)
	}
	return fmt.Sprintf("tabula: type %s %s", e.Type, what)
}

// Is reports whether the target is the sentinel matching the error kind.
func (e *MappingError) Is(target error) bool {
	switch e.Kind {
	case NoPrimaryKeys:
		return target == ErrNoPrimaryKeys
	case MissingTable:
		return target == ErrMissingTableMapping
	case MissingRoutine:
		return target == ErrMissingRoutineMapping
	}
	return false
}

// NewMappingError returns a new MappingError.
func NewMappingError(typ string, kind MappingKind, op string) *MappingError {
	return &MappingError{Type: typ, Kind: kind, Op: op}
}

// IsMappingError returns true if the error is a MappingError.
func IsMappingError(err error) bool {
	if err == nil {
		return false
	}
	var e *MappingError
	return errors.As(err, &e)
}

// ArgumentError reports a call that was made with invalid arguments,
// such as a wrong number of key values.
type ArgumentError struct {
	Op      string
	Message string
}

// Error returns the error string.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("tabula: %s: %s", e.Op, e.Message)
}

// Is reports whether the target error is ErrInvalidArgument.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NewArgumentError returns a new ArgumentError.
func NewArgumentError(op, format string, args ...any) *ArgumentError {
	return &ArgumentError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// ConnectorError wraps a failure to construct a command or transaction.
type ConnectorError struct {
	Op  string // Operation (e.g., "begin", "commit", "savepoint")
	Err error  // Underlying error
}

// Error returns the error string.
func (e *ConnectorError) Error() string {
	return fmt.Sprintf("tabula: connector %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectorError) Unwrap() error {
	return e.Err
}

// NewConnectorError returns a new ConnectorError.
func NewConnectorError(op string, err error) *ConnectorError {
	return &ConnectorError{Op: op, Err: err}
}

// CommandError wraps a driver error raised while executing a command,
// together with the text of the command that failed.
type CommandError struct {
	Text string // Command text sent to the backend
	Err  error  // Driver error
}

// Error returns the error string.
func (e *CommandError) Error() string {
	return fmt.Sprintf("tabula: command failed: %v [%s]", e.Err, e.Text)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError returns a new CommandError.
func NewCommandError(text string, err error) *CommandError {
	return &CommandError{Text: text, Err: err}
}

// IsCommandError returns true if the error is a CommandError.
func IsCommandError(err error) bool {
	if err == nil {
		return false
	}
	var e *CommandError
	return errors.As(err, &e)
}

// IsMisuse reports whether err was caused by the caller: invalid arguments or
// an incomplete type mapping. Such errors never succeed on retry.
func IsMisuse(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrInvalidArgument) || IsMappingError(err) ||
		errors.Is(err, ErrConnectorNotInitialized) || errors.Is(err, ErrTransactionStackEmpty)
}

// IsBackend reports whether err originated from the database or the driver.
func IsBackend(err error) bool {
	if err == nil {
		return false
	}
	var ce *ConnectorError
	return IsCommandError(err) || errors.As(err, &ce) ||
		errors.Is(err, ErrCanNotOpenConnection) || errors.Is(err, ErrCanNotCloseConnection)
}

// IsNotFound returns true if the error reports a key lookup without a match.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
