// Package errors provides structured error types for pyproject.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the library packages
//   - Machine-readable error codes mapped to process exit codes
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes mirror the failure taxonomy of the deps engine:
//   - CONFIG_ERROR, NOT_FOUND, ALREADY_EXISTS: store problems
//   - SOURCE_TYPE_ERROR: unknown source type or wrong arguments at add time
//   - RESOLUTION_ERROR: a source failed to resolve
//   - MARKER_ERROR, PATTERN_ERROR, INVALID_REQUIREMENT: malformed input
//   - HOOK_FAILED: a build backend hook exited non-zero or returned garbage
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "group %q doesn't exist", name)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // Handle missing group
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeConfig, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidRequirement Code = "INVALID_REQUIREMENT"
	ErrCodeInvalidMarker      Code = "MARKER_ERROR"
	ErrCodeInvalidPattern     Code = "PATTERN_ERROR"
	ErrCodeInvalidName        Code = "INVALID_NAME"

	// Store errors
	ErrCodeConfig        Code = "CONFIG_ERROR"
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeAlreadyExists Code = "ALREADY_EXISTS"
	ErrCodeSourceType    Code = "SOURCE_TYPE_ERROR"

	// Resolution errors
	ErrCodeResolution   Code = "RESOLUTION_ERROR"
	ErrCodeHook         Code = "HOOK_FAILED"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Coder is implemented by error types that carry their own code
// without being an *Error.
type Coder interface {
	Code() Code
}

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
// The outermost coded error in the chain decides.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	return GetCode(err) == code
}

// As finds the first error in err's chain that matches target.
// It is [errors.As], re-exported so callers need a single import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the error code from an error, if available.
// It returns the code of the outermost *Error or [Coder] in the chain,
// or the empty string if there is none.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case Coder:
			return e.Code()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message (and cause) without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}
