package service

import (
	"errors"
	"fmt"
)

// Error taxonomy of the authentication core. Handlers map these to HTTP
// status codes with errors.Is.
var (
	ErrValidation      = errors.New("bad request")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInternal        = errors.New("internal server error")
)

// Causes of ErrUnauthenticated on the session path. They are only used for
// server-side diagnostics; clients always see ErrUnauthenticated.
var (
	ErrNoToken         = fmt.Errorf("%w: no session token", ErrUnauthenticated)
	ErrSessionNotFound = fmt.Errorf("%w: session not found or expired", ErrUnauthenticated)
	ErrUserMissing     = fmt.Errorf("%w: session user no longer exists", ErrUnauthenticated)
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
