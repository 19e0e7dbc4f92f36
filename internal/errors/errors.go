package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies a failure for propagation and HTTP mapping.
type ErrorType string

const (
	// ErrTypeNotFound marks an identifier that does not resolve to a
	// participant. Expected outcome, not an anomaly.
	ErrTypeNotFound ErrorType = "NOT_FOUND"
	// ErrTypeTimeout marks a run that exceeded its deadline. Retryable;
	// in-flight work is cancelled, never merely abandoned.
	ErrTypeTimeout ErrorType = "TIMEOUT"
	// ErrTypeUpstream marks a data source failure other than absence.
	// Only absence is defaulted, an outright failure never is.
	ErrTypeUpstream ErrorType = "UPSTREAM"
	// ErrTypeValidation marks a malformed request.
	ErrTypeValidation ErrorType = "VALIDATION"
	// ErrTypeConfig marks a configuration invariant violation. Fatal,
	// detected at startup rather than per request.
	ErrTypeConfig ErrorType = "CONFIG"
)

// AppError is the application error carrying a typed kind, an optional
// cause, and free-form context.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error.
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// NewNotFoundError creates a not-found error for a resource.
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewTimeoutError creates a deadline-exceeded error for a stage.
func NewTimeoutError(stage string, cause error) *AppError {
	return NewAppError(ErrTypeTimeout, fmt.Sprintf("%s exceeded deadline", stage), cause)
}

// NewUpstreamError creates an error for a failed data source call.
func NewUpstreamError(stage string, cause error) *AppError {
	return NewAppError(ErrTypeUpstream, fmt.Sprintf("%s failed", stage), cause)
}

// NewValidationError creates a request validation error.
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error.
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsKind reports whether err is an AppError of the given type.
func IsKind(err error, t ErrorType) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Type == t
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return IsKind(err, ErrTypeNotFound) }

// IsTimeout reports whether err is a deadline-exceeded error.
func IsTimeout(err error) bool { return IsKind(err, ErrTypeTimeout) }

// IsUpstream reports whether err is an upstream failure.
func IsUpstream(err error) bool { return IsKind(err, ErrTypeUpstream) }
