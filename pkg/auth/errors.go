package auth

import "errors"

var (
	// ErrUserNotFound indicates no user matches the lookup.
	ErrUserNotFound = errors.New("auth.user_not_found")

	// ErrEmailTaken indicates the canonical email already belongs to a user.
	ErrEmailTaken = errors.New("auth.email_taken")

	// ErrPhoneTaken indicates the canonical phone already belongs to a user.
	ErrPhoneTaken = errors.New("auth.phone_taken")

	// ErrTokenInvalid indicates a malformed or tampered magic link token.
	ErrTokenInvalid = errors.New("auth.token_invalid")

	// ErrTokenExpired indicates the magic link token is past its expiry.
	ErrTokenExpired = errors.New("auth.token_expired")
)
