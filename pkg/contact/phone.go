package contact

import (
	"fmt"
	"regexp"
	"strings"
)

// e164Regex validates the canonical international format: a plus sign followed
// by 7 to 15 digits with a non-zero leading digit (ITU-T E.164).
var e164Regex = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// region describes how to convert a national-format number into E.164.
type region struct {
	dialCode    string // country calling code without the plus
	trunkPrefix string // leading digit(s) dropped when dialing internationally
	minDigits   int    // national number length bounds after trunk removal
	maxDigits   int
}

// regions intentionally covers only the markets the platform operates in.
// Unknown regions fail closed instead of guessing.
var regions = map[string]region{
	"US": {dialCode: "1", trunkPrefix: "", minDigits: 10, maxDigits: 10},
	"CA": {dialCode: "1", trunkPrefix: "", minDigits: 10, maxDigits: 10},
	"GB": {dialCode: "44", trunkPrefix: "0", minDigits: 9, maxDigits: 10},
	"DE": {dialCode: "49", trunkPrefix: "0", minDigits: 6, maxDigits: 11},
	"FR": {dialCode: "33", trunkPrefix: "0", minDigits: 9, maxDigits: 9},
	"ES": {dialCode: "34", trunkPrefix: "", minDigits: 9, maxDigits: 9},
	"KZ": {dialCode: "7", trunkPrefix: "8", minDigits: 10, maxDigits: 10},
}

var nonDialChars = regexp.MustCompile(`[\s().\-]`)

// NormalizePhone converts a raw phone number into canonical E.164 form.
//
// Already-international input ("+...", or "00" prefixed) is validated and
// returned directly, making the function idempotent on canonical values. For
// national-format input the country code is taken from defaultRegion; only a
// small set of unambiguous trunk patterns is recognized, anything else returns
// ErrCountryCodeRequired rather than guessing. A wrong guess would silently
// collide two different subscribers into one account.
func NormalizePhone(raw, defaultRegion string) (string, error) {
	cleaned := nonDialChars.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return "", fmt.Errorf("%w: empty phone number", ErrInvalidFormat)
	}

	// International prefix "00" is equivalent to "+" in most dial plans.
	if strings.HasPrefix(cleaned, "00") {
		cleaned = "+" + cleaned[2:]
	}

	if strings.HasPrefix(cleaned, "+") {
		if !e164Regex.MatchString(cleaned) {
			return "", fmt.Errorf("%w: %q is not a valid E.164 number", ErrInvalidFormat, raw)
		}
		return cleaned, nil
	}

	if !isDigits(cleaned) {
		return "", fmt.Errorf("%w: %q contains non-dialable characters", ErrInvalidFormat, raw)
	}

	if defaultRegion == "" {
		return "", fmt.Errorf("%w: %q has no country code", ErrCountryCodeRequired, raw)
	}

	reg, ok := regions[strings.ToUpper(defaultRegion)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, defaultRegion)
	}

	national := cleaned
	if reg.trunkPrefix != "" && strings.HasPrefix(national, reg.trunkPrefix) && len(national) > reg.maxDigits {
		national = national[len(reg.trunkPrefix):]
	}

	if len(national) < reg.minDigits || len(national) > reg.maxDigits {
		return "", fmt.Errorf("%w: %q is not a valid %s number", ErrInvalidFormat, raw, strings.ToUpper(defaultRegion))
	}

	canonical := "+" + reg.dialCode + national
	if !e164Regex.MatchString(canonical) {
		return "", fmt.Errorf("%w: %q is not a valid phone number", ErrInvalidFormat, raw)
	}

	return canonical, nil
}

// MaskPhone shows only the last four digits for user-facing messages.
func MaskPhone(phone string) string {
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
