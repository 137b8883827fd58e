// Package contact normalizes and validates contact identifiers used for
// verification flows: email addresses and phone numbers.
//
// Both normalizers are idempotent: feeding a canonical identifier back in
// returns it unchanged. Phone normalization produces E.164 and fails closed
// when the country code cannot be determined unambiguously — guessing wrong
// country codes silently creates cross-account collisions, so the caller must
// supply an explicit default region for local-format input.
//
// # Usage
//
//	import "github.com/tutorbase/authkit/pkg/contact"
//
//	email, err := contact.NormalizeEmail(" John.Doe@Example.COM ")
//	// "john.doe@example.com"
//
//	phone, err := contact.NormalizePhone("(555) 123-4567", "US")
//	// "+15551234567"
//
// Returns ErrInvalidFormat for identifiers that cannot be resolved and
// ErrCountryCodeRequired when a phone number lacks a country code and no
// default region was given.
package contact
