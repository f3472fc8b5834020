package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// StatusClientClosedRequest is the non-standard status for a request the
// client abandoned before it was answered.
const StatusClientClosedRequest = 499

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeProcessing ErrorType = "processing"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeCancelled  ErrorType = "cancelled"
)

// AppError represents a structured application error. Details is sent to
// the client as is; it may be a string or any JSON value.
type AppError struct {
	Type       ErrorType   `json:"type"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	switch d := e.Details.(type) {
	case nil:
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	case json.RawMessage:
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, string(d))
	default:
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, d)
	}
}

// WithDetails sets Details and returns e.
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	e := &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
	if len(details) > 0 && details[0] != "" {
		e.Details = details[0]
	}
	return e
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeProcessing,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError is returned when the request raced a newer state, e.g. a
// superseded render or a placement drawn on an outdated frame.
func NewConflictError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// NewUpstreamError reports an answer from an upstream service that could not
// be used. details is usually the upstream answer itself.
func NewUpstreamError(message string, details interface{}, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUpstream,
		Message:    message,
		Details:    details,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewCancelledError reports a request the client gave up on.
func NewCancelledError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeCancelled,
		Message:    "client closed request",
		StatusCode: StatusClientClosedRequest,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// GetMessage returns the user-facing message for an error. Errors that are
// not AppErrors are not shown to users.
func GetMessage(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
