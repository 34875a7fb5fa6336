package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Generic errors
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeInternal   ErrorType = "INTERNAL"

	// Graph batching errors
	ErrorTypeSchemaMismatch         ErrorType = "SCHEMA_MISMATCH"
	ErrorTypeAmbiguousRelation      ErrorType = "AMBIGUOUS_RELATION_NAME"
	ErrorTypeAttributeShapeMismatch ErrorType = "ATTRIBUTE_SHAPE_MISMATCH"
	ErrorTypeNotABatch              ErrorType = "NOT_A_BATCH"

	// HTTP surface errors
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

// Constructor functions for common error types

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		StackTrace: captureStackTrace(),
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		StackTrace: captureStackTrace(),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
		StackTrace: captureStackTrace(),
	}
}

// NewSchemaMismatchError creates an error for incompatible relation schemas.
// Raised when the same canonical relation is declared with conflicting
// endpoint types across graphs being batched.
func NewSchemaMismatchError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeSchemaMismatch,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		StackTrace: captureStackTrace(),
	}
}

// NewAmbiguousRelationError creates an error for a short relation name
// that resolves to more than one canonical triple
func NewAmbiguousRelationError(name string, count int) *AppError {
	return &AppError{
		Type:       ErrorTypeAmbiguousRelation,
		Message:    fmt.Sprintf("relation name '%s' is ambiguous: matches %d canonical relations", name, count),
		HTTPStatus: http.StatusBadRequest,
		StackTrace: captureStackTrace(),
	}
}

// NewAttributeShapeMismatchError creates an error for attribute tensors
// whose non-leading dimensions disagree across graphs
func NewAttributeShapeMismatchError(expected, got []int) *AppError {
	return &AppError{
		Type:       ErrorTypeAttributeShapeMismatch,
		Message:    fmt.Sprintf("attribute shape mismatch: expected row shape of %v, got %v", expected, got),
		HTTPStatus: http.StatusUnprocessableEntity,
		StackTrace: captureStackTrace(),
	}
}

// NewNotABatchError creates an error for unbatching a graph that carries
// no batch descriptor
func NewNotABatchError() *AppError {
	return &AppError{
		Type:       ErrorTypeNotABatch,
		Message:    "graph is not a batch: no batch descriptor attached",
		HTTPStatus: http.StatusUnprocessableEntity,
		StackTrace: captureStackTrace(),
	}
}

// Helper functions

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsSchemaMismatch checks if an error is a schema mismatch error
func IsSchemaMismatch(err error) bool {
	return IsType(err, ErrorTypeSchemaMismatch)
}

// IsAmbiguousRelation checks if an error is an ambiguous relation name error
func IsAmbiguousRelation(err error) bool {
	return IsType(err, ErrorTypeAmbiguousRelation)
}

// IsAttributeShapeMismatch checks if an error is an attribute shape mismatch error
func IsAttributeShapeMismatch(err error) bool {
	return IsType(err, ErrorTypeAttributeShapeMismatch)
}

// IsNotABatch checks if an error is a not-a-batch error
func IsNotABatch(err error) bool {
	return IsType(err, ErrorTypeNotABatch)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, add context to message
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	// Otherwise create a new internal error
	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
