// Package errors provides the error types used across qbsync.
// They separate input problems (bad or empty spreadsheet data) from
// transport problems (cannot reach QuickBooks) and from per-operation
// rejections reported by QuickBooks itself, so callers can decide what is
// fatal to a run and what is merely recorded in the report.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As re-export the standard library matchers so callers only need
// one errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors.
var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a record already exists remotely.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoInputData indicates the spreadsheet produced no usable rows.
	// Runs fail on this before any remote session is opened.
	ErrNoInputData = errors.New("no input data")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")
)

// ValidationError represents a validation failure on input data.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// IOError represents an error during file I/O.
type IOError struct {
	Operation string // "open", "read", "write", "create"
	Path      string
	Err       error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a malformed document, either a spreadsheet cell
// or a QBXML response. Response parse errors are treated as transport
// errors by the pipeline.
type ParseError struct {
	Format  string // "xlsx", "qbxml"
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// GatewayError is a hard error status returned by QuickBooks for one
// operation. Status code 3100 ("name already in use") matches
// ErrAlreadyExists and is handled as a soft success by write-back.
type GatewayError struct {
	Operation  string // "query", "add"
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	return fmt.Sprintf("QuickBooks %s error (%d): %s", e.Operation, e.StatusCode, e.Message)
}

// Is implements errors.Is support.
func (e *GatewayError) Is(target error) bool {
	return target == ErrAlreadyExists && e.StatusCode == 3100
}

// NewGatewayError creates a new GatewayError.
func NewGatewayError(operation string, statusCode int, message string) *GatewayError {
	return &GatewayError{Operation: operation, StatusCode: statusCode, Message: message}
}

// TransportError represents a failure to exchange a request with
// QuickBooks at all: cannot open a session, cannot send, or the response
// never carried a status. It is fatal to the current run but still ends
// in an error-status report rather than a crash.
type TransportError struct {
	Stage string // "open", "process"
	Err   error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("QuickBooks transport error during %s: %v", e.Stage, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// WrapIO wraps an error as an IOError.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps an error as a ParseError.
func WrapParse(format, message string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, Message: message, Err: err}
}

// IsInput reports whether err is an input problem that should fail the
// run before a report is produced: missing files, bad worksheets, or a
// spreadsheet with no usable rows.
func IsInput(err error) bool {
	if errors.Is(err, ErrNoInputData) || errors.Is(err, ErrInvalidInput) {
		return true
	}
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// IsAlreadyExists checks if an error is an already exists error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsTransport reports whether err is a transport-level failure, including
// malformed responses, which the pipeline treats the same way.
func IsTransport(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var parseErr *ParseError
	return errors.As(err, &parseErr) && parseErr.Format == "qbxml"
}
