package services

import (
	"errors"

	"github.com/devilmonastery/fractal/internal/domain/repositories"
)

var (
	// ErrBadCredentials is returned for an unknown user or a wrong password.
	// The two cases are indistinguishable to the caller.
	ErrBadCredentials = errors.New("LOGIN_BAD_CREDENTIALS")

	// ErrUserInactive is returned when the password matches a disabled user
	ErrUserInactive = errors.New("LOGIN_USER_INACTIVE")

	// ErrDispatcherClosed is returned for submissions after Shutdown
	ErrDispatcherClosed = errors.New("dispatcher is shut down")
)

// GetUserLookupFailureReason returns a human-readable reason string for user lookup failures.
// This is used for logging and metrics labels.
func GetUserLookupFailureReason(err error) string {
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrUserInactive), errors.Is(err, repositories.ErrUserInactive):
		return "user_inactive"
	case errors.Is(err, ErrBadCredentials):
		return "bad_password"
	}
	return "user_lookup_failed"
}

// IsUserNotFound checks if the error indicates user not found.
func IsUserNotFound(err error) bool {
	return errors.Is(err, repositories.ErrUserNotFound)
}
