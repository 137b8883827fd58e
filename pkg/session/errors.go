package session

import "errors"

var (
	// ErrSessionNotFound indicates no session token was presented or the
	// token resolves to nothing.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrSessionExpired indicates the session exists but its expiry passed.
	ErrSessionExpired = errors.New("session.expired")

	// ErrTokenGeneration indicates the random token source failed.
	ErrTokenGeneration = errors.New("session.token_generation_failed")

	// ErrNoTransport indicates the manager was built without a usable transport.
	ErrNoTransport = errors.New("session.no_transport")
)
