package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	// ErrValidation is returned when a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated is returned when the caller has no valid credential.
	ErrUnauthenticated = errors.New("not authorized")
	// ErrForbidden is returned when the caller is authenticated but not the owner.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique constraint violations.
	ErrConflict = errors.New("conflict")
)

// Error carries a taxonomy kind together with a human readable message.
type Error struct {
	Kind    error
	Message string
	Fields  []string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap lets errors.Is match on the kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

// Validation builds a validation error naming the offending fields.
func Validation(message string, fields ...string) error {
	if message == "" {
		message = "missing or invalid fields: " + strings.Join(fields, ", ")
	}
	return &Error{Kind: ErrValidation, Message: message, Fields: fields}
}

// NotFound builds a not-found error.
func NotFound(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

// Forbidden builds a forbidden error.
func Forbidden(message string) error {
	return &Error{Kind: ErrForbidden, Message: message}
}

// Conflict builds a conflict error.
func Conflict(message string) error {
	return &Error{Kind: ErrConflict, Message: message}
}

// Unauthenticated builds an unauthenticated error.
func Unauthenticated(message string) error {
	return &Error{Kind: ErrUnauthenticated, Message: message}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Fields  []string `json:"fields,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     []string
	Detail     string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message: e.Message,
		Code:    e.Code,
		Fields:  e.Fields,
		Error:   e.Detail,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var appErr *Error
	message := err.Error()
	var fields []string
	if errors.As(err, &appErr) {
		message = appErr.Error()
		fields = appErr.Fields
	}

	switch {
	case errors.Is(err, ErrValidation):
		httpErr := NewHTTPError(http.StatusBadRequest, message, "VALIDATION_ERROR")
		httpErr.Fields = fields
		return httpErr
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthenticated.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, message, "FORBIDDEN")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, message, "NOT_FOUND")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusBadRequest, message, "CONFLICT")
	default:
		httpErr := NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
		httpErr.Detail = err.Error()
		return httpErr
	}
}

// ToHTTP converts any error into an echo error whose body is an ErrorResponse.
func ToHTTP(err error) *echo.HTTPError {
	httpErr := MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}
