package errors

import (
	"fmt"
)

// TrailError is the structured error type for trailstore.
// It provides rich context for error handling, logging, and user presentation.
type TrailError struct {
	// Code is the unique error code (e.g., "ERR_201_OPEN_INDEX").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *TrailError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *TrailError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with TrailError.
func (e *TrailError) Is(target error) bool {
	if t, ok := target.(*TrailError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *TrailError) WithDetail(key, value string) *TrailError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *TrailError) WithSuggestion(suggestion string) *TrailError {
	e.Suggestion = suggestion
	return e
}

// New creates a new TrailError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *TrailError {
	return &TrailError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a TrailError from an existing error.
// The error's message becomes the TrailError message.
func Wrap(code string, err error) *TrailError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *TrailError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// OpenError creates an index-open error.
func OpenError(message string, cause error) *TrailError {
	return New(ErrCodeOpenIndex, message, cause)
}

// LockTimeoutError creates a write-lock timeout error.
func LockTimeoutError(message string, cause error) *TrailError {
	return New(ErrCodeWriteLockHeld, message, cause).
		WithSuggestion("another process may hold the index open; close it or raise the lock timeout")
}

// CorruptIndexError creates an index corruption error.
func CorruptIndexError(message string, cause error) *TrailError {
	return New(ErrCodeCorruptIndex, message, cause).
		WithSuggestion("remove the index directory and reindex")
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *TrailError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *TrailError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if te, ok := err.(*TrailError); ok {
		return te.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a TrailError.
// Returns empty string if not a TrailError.
func GetCode(err error) string {
	if te, ok := err.(*TrailError); ok {
		return te.Code
	}
	return ""
}
