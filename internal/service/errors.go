package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Elmeric/cycliti/internal/repository"
)

var (
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateUsername   = errors.New("username already registered")
	ErrInvalidOrExpired    = errors.New("invalid or expired nonce")
	ErrTooManyAttempts     = errors.New("too many password reset attempts")
	ErrInsufficientScope   = errors.New("insufficient third-party scope")
	ErrUpstreamUnavailable = errors.New("third-party token endpoint unavailable")
	ErrStorage             = repository.ErrStorage
	ErrInternal            = errors.New("internal error")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserNotFound        = errors.New("user not found")
	ErrInactiveUser        = errors.New("inactive user")
	ErrThrottled           = errors.New("too many failed attempts")
)

// ThrottledError carries the remaining cooldown of a throttled login.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrThrottled, e.RetryAfter)
}

func (e *ThrottledError) Is(target error) bool { return target == ErrThrottled }

// storageFailure keeps ErrStorage in the chain of any unexpected
// repository error.
func storageFailure(op string, err error) error {
	if errors.Is(err, repository.ErrStorage) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStorage, err)
}

// ErrValidation wraps malformed client input.
var ErrValidation = errors.New("validation failed")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
