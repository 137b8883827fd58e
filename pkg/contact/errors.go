package contact

import "errors"

var (
	// ErrInvalidFormat indicates the identifier cannot be resolved to a valid canonical form.
	ErrInvalidFormat = errors.New("contact.invalid_format")

	// ErrCountryCodeRequired indicates a phone number without a country code
	// was given and no unambiguous inference was possible.
	ErrCountryCodeRequired = errors.New("contact.country_code_required")

	// ErrUnknownRegion indicates the supplied default region is not supported.
	ErrUnknownRegion = errors.New("contact.unknown_region")
)
