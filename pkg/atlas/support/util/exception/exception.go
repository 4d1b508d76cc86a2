// Package exception provides custom error types and error handling utilities for the Atlas data mapper.
// It standardizes the errors raised by the write path, allowing callers to distinguish
// usage errors (operations that conflict with a row's status) from storage-level failures.
package exception

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnexpectedRowCount is a sentinel error indicating that a write affected a number of
// rows other than the expected count. It signals a stale identity, a lost update, or a
// WHERE clause matching more than one row.
var ErrUnexpectedRowCount = errors.New("unexpected affected row count")

// ErrCannotInsert is a sentinel error indicating an insert was attempted on a row whose
// status is not NEW.
var ErrCannotInsert = errors.New("cannot insert row")

// ErrCannotUpdate is a sentinel error indicating an update was attempted on a row whose
// status is not DIRTY.
var ErrCannotUpdate = errors.New("cannot update row")

// ErrCannotDelete is a sentinel error indicating a delete was attempted on a row that is
// NEW, already DELETED, or has no resolvable identity.
var ErrCannotDelete = errors.New("cannot delete row")

// ErrImmutableRow is a sentinel error indicating a mutation was attempted on a DELETED row,
// or on a primary-key column of a row already registered in the identity map.
var ErrImmutableRow = errors.New("row is immutable")

// ErrTransactionSpent is a sentinel error indicating that Exec was called on a transaction
// that already ran, or that an operation was enqueued after execution started.
var ErrTransactionSpent = errors.New("transaction already executed")

// MapperError is a custom error type for failures raised by the mapper layer.
// It holds the module where the error occurred, a message, and the wrapped original error.
type MapperError struct {
	// Module indicates the module where the error occurred (e.g., "gateway", "engine", "mapper").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error, if any.
	OriginalErr error
}

// NewMapperError creates a new MapperError instance.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap, or nil.
func NewMapperError(module, message string, originalErr error) *MapperError {
	return &MapperError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
	}
}

// NewMapperErrorf creates a new MapperError with a formatted message.
// If the last argument is an error it is extracted and wrapped instead of being
// passed to the format string; a trailing "%w" or "%v" verb consuming it is
// stripped, since Error() appends the wrapped error itself.
func NewMapperErrorf(module, format string, a ...interface{}) *MapperError {
	var originalErr error
	args := a
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
			for _, verb := range []string{": %w", " %w", "%w", ": %v", " %v"} {
				if strings.HasSuffix(format, verb) {
					format = strings.TrimSuffix(format, verb)
					break
				}
			}
		}
	}
	return &MapperError{
		Module:      module,
		Message:     fmt.Sprintf(format, args...),
		OriginalErr: originalErr,
	}
}

// Error implements the error interface.
// It returns the error's module, message, and the string representation of the original error.
func (e *MapperError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *MapperError) Unwrap() error {
	return e.OriginalErr
}

// NewUnexpectedRowCount creates a MapperError wrapping ErrUnexpectedRowCount,
// recording the table, the expected count, and the count the storage engine reported.
func NewUnexpectedRowCount(module, table string, expected, actual int64) *MapperError {
	return &MapperError{
		Module:      module,
		Message:     fmt.Sprintf("table %q: expected %d affected row(s), storage reported %d", table, expected, actual),
		OriginalErr: ErrUnexpectedRowCount,
	}
}

// IsUnexpectedRowCount determines if an error indicates an affected-row-count mismatch.
func IsUnexpectedRowCount(err error) bool {
	return errors.Is(err, ErrUnexpectedRowCount)
}

// IsImmutableRow determines if an error indicates a mutation of an immutable row.
func IsImmutableRow(err error) bool {
	return errors.Is(err, ErrImmutableRow)
}

// IsUsageError reports whether the error is a programmer-usage error, i.e. an operation
// that conflicts with the row's current status rather than a transient storage failure.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrCannotInsert) ||
		errors.Is(err, ErrCannotUpdate) ||
		errors.Is(err, ErrCannotDelete) ||
		errors.Is(err, ErrImmutableRow)
}

// ExtractErrorMessage extracts the error message string from an error.
// For MapperError, it returns the cleaner Message field.
// Otherwise, it returns the standard Error() string.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var me *MapperError
	if errors.As(err, &me) {
		return me.Message
	}
	return err.Error()
}
