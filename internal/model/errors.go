package model

import "errors"

var validationErrors = []error{
	ErrEmptyUsername,
	ErrInvalidEmail,
	ErrEmptyPassword,
	ErrPasswordMismatch,
	ErrUsernameTaken,
	ErrEmptyText,
	ErrCannotFollowSelf,
}

// IsValidationError reports whether err is a user input error.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthError reports whether err is a failed credential check.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnknownUser) || errors.Is(err, ErrBadPassword)
}
