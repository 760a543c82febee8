// Package errors defines the API error model rendered over HTTP and the
// internal AppError type the services wrap causes with.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	// 400 Bad Request
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrMissingParameter = New(http.StatusBadRequest, "MISSING_PARAMETER", "Required parameter is missing")

	// 404 Not Found
	ErrNotFound    = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrRFQNotFound = New(http.StatusNotFound, "RFQ_NOT_FOUND", "RFQ not found")

	// 409 Conflict
	ErrConflict = New(http.StatusConflict, "CONFLICT", "Resource conflict")

	// 422 Unprocessable Entity
	ErrUnknownLayout = New(http.StatusUnprocessableEntity, "UNKNOWN_LAYOUT", "Spreadsheet layout not recognized")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	ErrStorage        = New(http.StatusInternalServerError, "STORAGE_ERROR", "Storage error")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(ErrInvalidRequest.StatusCode, ErrInvalidRequest.ErrorCode, ErrInvalidRequest.Message, err.Error())
}

// MissingParameterError names the parameter that was missing
func MissingParameterError(name string) *APIError {
	return NewWithDetails(ErrMissingParameter.StatusCode, ErrMissingParameter.ErrorCode, ErrMissingParameter.Message, ValidationError{
		Field:   name,
		Message: "required",
	})
}

// ConflictError creates a conflict error with a specific message
func ConflictError(message string) *APIError {
	return New(ErrConflict.StatusCode, ErrConflict.ErrorCode, message)
}

// UnknownLayoutError wraps a layout detection failure with the parser detail
func UnknownLayoutError(err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, "UNKNOWN_LAYOUT", "Spreadsheet layout not recognized", err.Error())
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// Render implements the render.Renderer interface
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		ErrValidationFailed.StatusCode,
		ErrValidationFailed.ErrorCode,
		ErrValidationFailed.Message,
		ValidationErrors{Errors: errors},
	)
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(NewErrorResponse(err))
}

// NewValidationError creates a simple validation error
func NewValidationError(message string) *APIError {
	return New(ErrValidationFailed.StatusCode, ErrValidationFailed.ErrorCode, message)
}
