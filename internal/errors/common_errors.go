package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Recoverable, absorbed per row or per id with a diagnostic.
	ErrTypeFormat          ErrorType = "FORMAT"
	ErrTypeMissingData     ErrorType = "MISSING_DATA"
	ErrTypeReferentialMiss ErrorType = "REFERENTIAL_MISS"
	ErrTypeUnderage        ErrorType = "UNDERAGE"

	// Fatal, abort the run.
	ErrTypeIntegrity   ErrorType = "INTEGRITY"
	ErrTypeSchema      ErrorType = "SCHEMA"
	ErrTypeComputation ErrorType = "COMPUTATION"
	ErrTypeIO          ErrorType = "IO"
	ErrTypeConfig      ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError of the same Type, so sentinel values such as
// ErrIntegrityViolation can be used with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Message == ""
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Recoverable reports whether the error only invalidates a single row or id.
func (e *AppError) Recoverable() bool {
	switch e.Type {
	case ErrTypeFormat, ErrTypeMissingData, ErrTypeReferentialMiss, ErrTypeUnderage:
		return true
	default:
		return false
	}
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Sentinels for errors.Is. They carry no message so any error of the
// same type matches.
var (
	ErrFormat             = &AppError{Type: ErrTypeFormat}
	ErrIntegrityViolation = &AppError{Type: ErrTypeIntegrity}
	ErrSchema             = &AppError{Type: ErrTypeSchema}
	ErrComputation        = &AppError{Type: ErrTypeComputation}
	ErrIO                 = &AppError{Type: ErrTypeIO}
	ErrConfig             = &AppError{Type: ErrTypeConfig}
)

// Helper functions for common error types

// NewFormatError creates an error for malformed field text
func NewFormatError(message string, cause error) *AppError {
	return NewAppError(ErrTypeFormat, message, cause)
}

// NewMissingDataError creates an error for an empty required field
func NewMissingDataError(field string) *AppError {
	return NewAppError(ErrTypeMissingData, fmt.Sprintf("%s is empty", field), nil).
		WithContext("field", field)
}

// NewReferentialMiss creates an error for an id missing from the voter table
func NewReferentialMiss(id string) *AppError {
	return NewAppError(ErrTypeReferentialMiss, fmt.Sprintf("could not find voter with ID %s", id), nil).
		WithContext("voter_id", id)
}

// NewUnderageError creates an error for a voter under the minimum age
func NewUnderageError(id string, age float64) *AppError {
	return NewAppError(ErrTypeUnderage, fmt.Sprintf("voter %s is under age (%v)", id, age), nil).
		WithContext("voter_id", id).
		WithContext("age", age)
}

// NewIntegrityViolation creates a fatal data-integrity error
func NewIntegrityViolation(message string) *AppError {
	return NewAppError(ErrTypeIntegrity, message, nil)
}

// NewSchemaError creates a fatal error for rows that do not match the expected layout
func NewSchemaError(message string) *AppError {
	return NewAppError(ErrTypeSchema, message, nil)
}

// NewComputationError creates a fatal error for an undefined ratio
func NewComputationError(message string) *AppError {
	return NewAppError(ErrTypeComputation, message, nil)
}

// NewIOError creates an I/O error
func NewIOError(message string, cause error) *AppError {
	return NewAppError(ErrTypeIO, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsRecoverable reports whether err (or anything it wraps) is a row-level error.
func IsRecoverable(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Recoverable()
	}
	return false
}

// TypeOf returns the ErrorType of err, or "" when err is not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
