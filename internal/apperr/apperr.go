// Package apperr defines the error taxonomy surfaced to callers of the
// practice engine.
package apperr

import "errors"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnauthenticated means the caller carried no identity.
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	// CodeInvalidInput means a required field was missing or malformed.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeInternal covers everything unexpected.
	CodeInternal Code = "INTERNAL"
)

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Message safe to show the caller (except for CodeInternal)
	Cause   error  // Wrapped underlying error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthenticated = &Error{Code: CodeUnauthenticated}
	ErrInvalidInput    = &Error{Code: CodeInvalidInput}
	ErrInternal        = &Error{Code: CodeInternal}
)

// Unauthenticated returns the identity error.
func Unauthenticated() *Error {
	return &Error{Code: CodeUnauthenticated, Message: "authentication required"}
}

// InvalidInput creates an input error with a descriptive message.
func InvalidInput(message string) *Error {
	return &Error{Code: CodeInvalidInput, Message: message}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: message, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
