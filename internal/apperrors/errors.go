// Package apperrors defines the coded errors the service layer returns and
// the HTTP layer renders. Callers match them with errors.Is against the
// exported sentinels; two errors match when their codes are equal.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error kind in responses and logs.
type Code string

const (
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeDuplicateSkill     Code = "DUPLICATE_SKILL"
	CodeDuplicateRequest   Code = "DUPLICATE_REQUEST"
	CodeUserExists         Code = "USER_EXISTS"
	CodeInvalidTransition  Code = "INVALID_TRANSITION"
	CodeInvalidTarget      Code = "INVALID_TARGET"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeUnavailable        Code = "SERVICE_UNAVAILABLE"
	CodeInternal           Code = "INTERNAL_ERROR"
)

var statusByCode = map[Code]int{
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeUnauthenticated:    http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeNotFound:           http.StatusNotFound,
	CodeDuplicateSkill:     http.StatusConflict,
	CodeDuplicateRequest:   http.StatusConflict,
	CodeUserExists:         http.StatusConflict,
	CodeInvalidTransition:  http.StatusConflict,
	CodeInvalidTarget:      http.StatusBadRequest,
	CodeValidation:         http.StatusBadRequest,
	CodeUnavailable:        http.StatusServiceUnavailable,
	CodeInternal:           http.StatusInternalServerError,
}

// Error is an application error with a stable code and a message that is
// safe to show to the client.
type Error struct {
	Code    Code
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// HTTPStatus returns the status code the error maps to.
func (e *Error) HTTPStatus() int {
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Sentinels for errors.Is.
var (
	ErrInvalidCredentials = New(CodeInvalidCredentials, "invalid credentials")
	ErrUnauthenticated    = New(CodeUnauthenticated, "authentication required")
	ErrForbidden          = New(CodeForbidden, "forbidden")
	ErrNotFound           = New(CodeNotFound, "not found")
	ErrDuplicateSkill     = New(CodeDuplicateSkill, "skill already listed")
	ErrDuplicateRequest   = New(CodeDuplicateRequest, "a pending request already exists")
	ErrUserExists         = New(CodeUserExists, "user already exists")
	ErrInvalidTransition  = New(CodeInvalidTransition, "invalid status transition")
	ErrInvalidTarget      = New(CodeInvalidTarget, "invalid target")
	ErrValidation         = New(CodeValidation, "validation failed")
	ErrUnavailable        = New(CodeUnavailable, "service unavailable")
	ErrInternal           = New(CodeInternal, "internal server error")
)

// New builds an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches an underlying cause. The cause is logged, never rendered.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return Wrap(err, CodeInternal, "internal server error")
}

// Validation builds a validation error carrying per-field details.
func Validation(message string, details any) *Error {
	return &Error{Code: CodeValidation, Message: message, Details: details}
}

// From extracts an *Error from err, treating anything else as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
