// Package errors provides structured error types for the streamnet pipeline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and library use
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Every failure in the pipeline falls into a small taxonomy:
//   - PREREQUISITE_MISSING: a required named map is absent from the workspace
//     (a stage was skipped or maps were named inconsistently)
//   - GRAPH_EXTRACTION: malformed or empty raster input
//   - TOPOLOGY: a network invariant was violated (cycle, multiple outlets,
//     disconnection after restructuring)
//   - INVALID_ARGUMENT: bad or mutually missing parameters
//   - IO_ERROR: workspace persistence failure
//   - INTERNAL: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodePrerequisite, "map %q not found; run build first", name)
//	if errors.Is(err, errors.ErrCodePrerequisite) {
//	    // Handle missing prerequisite
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "save map %q", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the pipeline's failure taxonomy.
const (
	ErrCodePrerequisite Code = "PREREQUISITE_MISSING"
	ErrCodeExtraction   Code = "GRAPH_EXTRACTION"
	ErrCodeTopology     Code = "TOPOLOGY"
	ErrCodeArgument     Code = "INVALID_ARGUMENT"
	ErrCodeIO           Code = "IO_ERROR"
	ErrCodeInternal     Code = "INTERNAL"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
