package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrStorage      = errors.New("storage failure")
	ErrDuplicate    = errors.New("duplicate record")
	ErrUserNotFound = errors.New("user not found")
	// ErrSideRecordGone reports that the activation, reset or link row a
	// mutation expected was deleted or rotated concurrently.
	ErrSideRecordGone = errors.New("side record not found")
	// ErrAttemptsExhausted reports that a password reset row already holds
	// the maximum number of attempts.
	ErrAttemptsExhausted = errors.New("password reset attempts exhausted")
)

// storageError wraps err in ErrStorage, adding ErrDuplicate for unique
// violations. Sentinels of this package pass through untouched.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrSideRecordGone), errors.Is(err, ErrAttemptsExhausted):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrUserNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w: %v", op, ErrStorage, ErrDuplicate, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrStorage, err)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
