package response

import (
	"errors"
)

// Error is a domain error that already knows its HTTP status. Slug is the
// machine readable code returned to clients.
type Error struct {
	Code int
	Slug string
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{Code: code, Err: errors.New(err)}
}

func NewCodedError(code int, slug string, err string) error {
	return &Error{Code: code, Slug: slug, Err: errors.New(err)}
}
