// Package errors defines the error envelope returned by the HTTP API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error with a stable machine code, a client safe message and the
// HTTP status it maps to. Fields carries per-field messages for profile settings.
type AppError struct {
	Code       string              `json:"code"`
	Message    string              `json:"message"`
	StatusCode int                 `json:"-"`
	Fields     map[string][]string `json:"fields,omitempty"`
	Internal   error               `json:"-"`
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Internal != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	default:
		return e.Message
	}
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches any AppError carrying the same code, so copies made by the With
// helpers still satisfy errors.Is against their sentinel.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if e == nil || !errors.As(target, &other) || other == nil {
		return false
	}
	return e.Code == other.Code
}

func (e *AppError) clone() *AppError {
	cpy := *e
	return &cpy
}

// WithInternal returns a copy that keeps err for logs without exposing it.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}
	cpy := e.clone()
	cpy.Internal = err
	return cpy
}

// WithMessage returns a copy with a different client message.
func (e *AppError) WithMessage(message string) *AppError {
	if e == nil {
		return nil
	}
	cpy := e.clone()
	cpy.Message = message
	return cpy
}

// WithFields returns a copy carrying per-field messages.
func (e *AppError) WithFields(fields map[string][]string) *AppError {
	if e == nil {
		return nil
	}
	cpy := e.clone()
	cpy.Fields = fields
	return cpy
}

var (
	ErrUnauthorized       = New("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)
	ErrForbidden          = New("FORBIDDEN", "Permission denied", http.StatusForbidden)
	ErrNotFound           = New("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrBadRequest         = New("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrValidation         = New("VALIDATION_FAILED", "Some values are invalid", http.StatusUnprocessableEntity)
	ErrInternalServer     = New("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrRateLimit          = New("RATE_LIMIT_EXCEEDED", "Too many requests, please slow down", http.StatusTooManyRequests)
)

func New(code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// Wrap reports err as a 500 with message shown to the client.
func Wrap(err error, message string) *AppError {
	return New("INTERNAL_ERROR", message, http.StatusInternalServerError).WithInternal(err)
}

// FromError finds the AppError in err's chain. Anything else becomes
// ErrInternalServer with err attached.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.WithInternal(err)
}

func NewBadRequest(message string) *AppError {
	return ErrBadRequest.WithMessage(message)
}

// NewValidation reports per-field failures with a 422 status. An empty message
// keeps the default one.
func NewValidation(message string, fields map[string][]string) *AppError {
	out := ErrValidation.WithFields(fields)
	if message != "" {
		out.Message = message
	}
	return out
}
