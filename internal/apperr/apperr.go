// Package apperr is the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Validation   Kind = "validation"
	Unauthorized Kind = "unauthorized"
	Forbidden    Kind = "forbidden"
	NotFound     Kind = "not_found"
	Conflict     Kind = "conflict"
	NotModified  Kind = "not_modified"
	RateLimited  Kind = "rate_limited"
	Internal     Kind = "internal"
)

var defaultStatus = map[Kind]int{
	Validation:   http.StatusBadRequest,
	Unauthorized: http.StatusUnauthorized,
	Forbidden:    http.StatusForbidden,
	NotFound:     http.StatusNotFound,
	Conflict:     http.StatusConflict,
	NotModified:  http.StatusBadRequest,
	RateLimited:  http.StatusTooManyRequests,
	Internal:     http.StatusInternalServerError,
}

type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the kind's default status.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Status: defaultStatus[kind], Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithStatus overrides the HTTP status, e.g. conflicts answered with 400.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// Wrap attaches a cause that is logged but never sent to clients.
func Wrap(kind Kind, message string, err error) *Error {
	e := New(kind, message)
	e.Err = err
	return e
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
