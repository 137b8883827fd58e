package otp

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenNotFound indicates the token is missing or already consumed.
	ErrTokenNotFound = errors.New("otp.token_not_found")

	// ErrTokenExpired indicates the token exists but its expiry has passed.
	ErrTokenExpired = errors.New("otp.token_expired")

	// ErrTooManyAttempts indicates the attempt counter reached its maximum.
	ErrTooManyAttempts = errors.New("otp.too_many_attempts")

	// ErrCodeMismatch indicates the submitted code did not match.
	ErrCodeMismatch = errors.New("otp.code_mismatch")

	// ErrInvalidConfig indicates the service configuration is invalid.
	ErrInvalidConfig = errors.New("otp.invalid_config")
)

// CodeMismatchError reports a failed comparison together with how many
// attempts remain before the token locks out.
type CodeMismatchError struct {
	Remaining int
}

func (e *CodeMismatchError) Error() string {
	return fmt.Sprintf("%s: %d attempts remaining", ErrCodeMismatch, e.Remaining)
}

// Is makes errors.Is(err, ErrCodeMismatch) work on the typed error.
func (e *CodeMismatchError) Is(target error) bool {
	return target == ErrCodeMismatch
}
