package types

import "fmt"

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Engine error codes
const (
	// ErrRunner reports a failure of the validator execution boundary itself
	// (worker crash, serialization error, validator timeout). Recovered
	// locally: converted into a failed validator outcome, never fatal.
	ErrRunner ErrorCode = "RUNNER_ERROR"

	// ErrParse reports raw model output that does not match the expected
	// shape. Policy-dependent: fatal in strict mode, a root-level reask in
	// lenient mode.
	ErrParse ErrorCode = "PARSE_ERROR"

	// ErrPolicyException reports a validator failure whose on-fail policy is
	// set to raise. Fatal to the call.
	ErrPolicyException ErrorCode = "POLICY_EXCEPTION"

	// ErrTransport reports a model caller failure. Fatal to the call; the
	// engine does not retry transport errors.
	ErrTransport ErrorCode = "TRANSPORT_ERROR"
)

// Internal error codes
const (
	ErrInvalidSchema    ErrorCode = "INVALID_SCHEMA"
	ErrInvalidConfig    ErrorCode = "INVALID_CONFIG"
	ErrHistorySequence  ErrorCode = "HISTORY_SEQUENCE"
	ErrCallCancelled    ErrorCode = "CALL_CANCELLED"
	ErrUnknownValidator ErrorCode = "UNKNOWN_VALIDATOR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Path      string    `json:"path,omitempty"`
	Validator string    `json:"validator,omitempty"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as safe to retry by the caller.
func (e *Error) WithRetryable() *Error {
	e.Retryable = true
	return e
}

// WithPath records the schema path the error originated at.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithValidator records the validator that produced the error.
func (e *Error) WithValidator(name string) *Error {
	e.Validator = name
	return e
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsRetryable reports whether the error is marked as safe to retry.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}
