package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrChallengeInvalid   = errors.New("captcha invalid or expired")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("access forbidden")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// Token failures. Both satisfy errors.Is(err, ErrUnauthenticated); the
// distinction exists for logs only.
var (
	ErrTokenExpired   = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrTokenMalformed = fmt.Errorf("%w: token malformed", ErrUnauthenticated)
)

// StorageError marks err as a persistence failure while keeping the cause
// available to errors.As / errors.Is.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStorageUnavailable, err))
}
