package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrValidation is returned when input is malformed.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden is returned when the acting identity may not touch a resource.
	ErrForbidden = errors.New("access denied")
	// ErrUnauthorized is returned when credentials or tokens are invalid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned on duplicate keys or concurrent modification.
	ErrConflict = errors.New("conflicting modification")
	// ErrConsistency is returned when a balance update and its entry mutation could not both commit.
	ErrConsistency = errors.New("consistency violation")
)

// kindError is a named error that belongs to one of the sentinel kinds.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New creates an error with its own message that matches kind under errors.Is.
func New(kind error, message string) error {
	return &kindError{kind: kind, msg: message}
}

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound creates a NotFoundError.
func NewNotFound(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a ValidationError.
func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ValidationErrors collects several field errors, e.g. for a batch.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Error())
	}
	return strings.Join(parts, "; ")
}

func (e ValidationErrors) Unwrap() error { return ErrValidation }

// ConsistencyError wraps a storage failure raised inside a balance-affecting transaction.
type ConsistencyError struct {
	Op  string
	Err error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConsistencyError) Unwrap() []error { return []error{ErrConsistency, e.Err} }

// Consistency maps an error leaving a transaction. Domain errors pass through
// unchanged; anything else becomes a ConsistencyError.
func Consistency(op string, err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	return &ConsistencyError{Op: op, Err: err}
}

// IsDomain reports whether err already belongs to the taxonomy.
func IsDomain(err error) bool {
	for _, target := range []error{ErrNotFound, ErrValidation, ErrForbidden, ErrUnauthorized, ErrConflict, ErrConsistency} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsForbidden reports whether err is an authorization denial.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Details    any
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
		Error:   e.Message,
		Code:    e.Code,
		Details: e.Details,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch {
	case errors.Is(err, ErrValidation):
		e := NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		var many ValidationErrors
		var one *ValidationError
		if errors.As(err, &many) {
			e.Details = []*ValidationError(many)
		} else if errors.As(err, &one) {
			e.Details = []*ValidationError{one}
		}
		return e
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, err.Error(), "CONFLICT")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
