package service

import (
	"errors"
	"fmt"
)

// ErrValidation marks caller-correctable input errors. Wrap it with the
// human-readable reason: fmt.Errorf("%w: phone is required", ErrValidation).
var ErrValidation = errors.New("validation error")

// ErrRateLimited is returned when a phone number exceeds its booking window.
var ErrRateLimited = errors.New("too many requests")

func validationErr(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}
