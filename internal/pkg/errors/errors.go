// Package errors defines the closed error set shared by services and
// handlers. Handlers match these sentinels exhaustively when mapping to
// HTTP statuses.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalid               = errors.New("invalid request")
	ErrConflict              = errors.New("conflict")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredCode  = errors.New("invalid or expired code")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNotFound              = errors.New("not found")
	ErrInternal              = errors.New("internal")
)

type labeled struct {
	msg string
	err error
}

func (e *labeled) Error() string { return e.msg }

func (e *labeled) Unwrap() error { return e.err }

// Invalidf returns a validation error carrying a user-facing message.
// errors.Is(err, ErrInvalid) holds for the result.
func Invalidf(format string, args ...interface{}) error {
	return &labeled{msg: fmt.Sprintf(format, args...), err: ErrInvalid}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
