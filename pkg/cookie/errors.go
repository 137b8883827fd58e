package cookie

import "errors"

var (
	// ErrNoSecret indicates no signing secret was provided.
	ErrNoSecret = errors.New("cookie.no_secret")

	// ErrSecretTooShort indicates a signing secret shorter than 32 characters.
	ErrSecretTooShort = errors.New("cookie.secret_too_short")

	// ErrCookieNotFound indicates the request carries no such cookie.
	ErrCookieNotFound = errors.New("cookie.not_found")

	// ErrSignatureInvalid indicates the cookie value failed verification.
	ErrSignatureInvalid = errors.New("cookie.signature_invalid")
)
