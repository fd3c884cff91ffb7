// Package apierr lets a service choose the HTTP status and envelope code of
// an error itself, for the cases the generic sentinel mapping gets wrong:
// duplicate favorites answer 400 "already_exists" rather than a 409, a bad
// login is a 400 rather than a 401.
package apierr

import (
	"errors"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

// Error is the message shown to the client.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	case http.StatusText(e.Status) != "":
		return http.StatusText(e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

func Forbidden(err error) *Error {
	return New(http.StatusForbidden, "forbidden", err)
}

// From returns the outermost *Error in err's chain that names a status.
func From(err error) (*Error, bool) {
	for err != nil {
		var ae *Error
		if !errors.As(err, &ae) {
			return nil, false
		}
		if ae.Status != 0 {
			return ae, true
		}
		err = ae.Err
	}
	return nil, false
}
