package contact

import (
	"fmt"
	"regexp"
	"strings"
)

// emailRegex follows the pragmatic HTML5 email validation pattern rather than
// full RFC 5322, which permits addresses no mail provider accepts.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

var consecutiveDots = regexp.MustCompile(`\.{2,}`)

// NormalizeEmail canonicalizes an email address: trims whitespace, lowercases,
// and consolidates consecutive dots in the local part. The result is validated
// before being returned, so a non-error result is always canonical and feeding
// it back in returns it unchanged.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))

	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "", fmt.Errorf("%w: missing @ in %q", ErrInvalidFormat, raw)
	}

	local = strings.Trim(consecutiveDots.ReplaceAllString(local, "."), ".")
	email = local + "@" + domain

	if !emailRegex.MatchString(email) {
		return "", fmt.Errorf("%w: %q is not a valid email address", ErrInvalidFormat, raw)
	}

	return email, nil
}

// MaskEmail hides the local part for user-facing messages while preserving the
// domain for recognition ("j***@example.com").
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return email
	}
	if len(local) == 1 {
		return "*@" + domain
	}
	return local[:1] + strings.Repeat("*", len(local)-1) + "@" + domain
}
