package verification

import (
	"time"

	"github.com/tutorbase/authkit/pkg/ratelimit"
)

// Config holds module policy. Rate limit budgets default to the documented
// sign-in and code-request budgets.
type Config struct {
	// BaseURL is the externally visible origin used to build magic links,
	// e.g. "https://app.example.com".
	BaseURL string `env:"VERIFICATION_BASE_URL,required"`

	// SigninLimit bounds verification attempts per identity.
	SigninLimit  int           `env:"VERIFICATION_SIGNIN_LIMIT" envDefault:"5"`
	SigninWindow time.Duration `env:"VERIFICATION_SIGNIN_WINDOW" envDefault:"15m"`

	// RequestLimit bounds code issuance per identity.
	RequestLimit  int           `env:"VERIFICATION_REQUEST_LIMIT" envDefault:"3"`
	RequestWindow time.Duration `env:"VERIFICATION_REQUEST_WINDOW" envDefault:"5m"`
}

func (c Config) withDefaults() Config {
	if c.SigninLimit <= 0 {
		c.SigninLimit = 5
	}
	if c.SigninWindow <= 0 {
		c.SigninWindow = 15 * time.Minute
	}
	if c.RequestLimit <= 0 {
		c.RequestLimit = 3
	}
	if c.RequestWindow <= 0 {
		c.RequestWindow = 5 * time.Minute
	}
	return c
}

// SigninPolicy returns the rate limit policy for verification attempts.
func (c Config) SigninPolicy() ratelimit.Policy {
	return ratelimit.Policy{Limit: c.SigninLimit, Window: c.SigninWindow}
}

// RequestPolicy returns the rate limit policy for code issuance.
func (c Config) RequestPolicy() ratelimit.Policy {
	return ratelimit.Policy{Limit: c.RequestLimit, Window: c.RequestWindow}
}
