package apperr

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the money path.
//
// Every user-facing failure wraps exactly one of these so transport layers can
// map it to a status code in one place. Guard checks fail fast with one of the
// client kinds before any write; ErrTransient marks infrastructure failures
// that rolled back a transaction and are safe to retry.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrConflict        = errors.New("conflict")
	ErrTransient       = errors.New("transient infrastructure failure")
)

func Unauthorizedf(format string, args ...any) error {
	return wrapf(ErrUnauthorized, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return wrapf(ErrNotFound, format, args...)
}

func InvalidStatef(format string, args ...any) error {
	return wrapf(ErrInvalidState, format, args...)
}

func Conflictf(format string, args ...any) error {
	return wrapf(ErrConflict, format, args...)
}

func Transientf(format string, args ...any) error {
	return wrapf(ErrTransient, format, args...)
}

func wrapf(kind error, format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, kind)...)
}

// IsClient reports whether err is attributable to the caller (vs infrastructure).
func IsClient(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrConflict)
}
