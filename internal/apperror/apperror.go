// Package apperror defines the errors that handlers turn into HTTP responses.
package apperror

import (
	"errors"
	"net/http"
)

// Error is an error with a client-facing status code and message.
// Fields carries per-field validation messages and is empty otherwise.
type Error struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *Error) Error() string {
	return e.Message
}

// Validation returns a 422 error. fields may be nil.
func Validation(message string, fields map[string][]string) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Message: message, Fields: fields}
}

// FieldError returns a 422 error for a single field.
func FieldError(field, message string) *Error {
	return Validation(message, map[string][]string{field: {message}})
}

func Unauthenticated(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasStatus reports whether err carries the given status code.
func HasStatus(err error, status int) bool {
	appErr, ok := As(err)
	return ok && appErr.Status == status
}
