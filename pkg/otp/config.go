package otp

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds OTP service settings. Explicit construction-time configuration
// keeps thresholds overridable in tests instead of baked-in constants.
type Config struct {
	CodeTTL     time.Duration `env:"OTP_CODE_TTL" envDefault:"10m"`    // CodeTTL is how long an issued code stays valid.
	MaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`  // MaxAttempts is the number of failed checks before lockout.
	Retention   time.Duration `env:"OTP_RETENTION" envDefault:"24h"`   // Retention is how long expired/consumed tokens are kept for audit.
	BcryptCost  int           `env:"OTP_BCRYPT_COST" envDefault:"10"`  // BcryptCost is the bcrypt cost for code hashing.
}

// withDefaults fills zero values so a zero Config is usable.
func (c Config) withDefaults() Config {
	if c.CodeTTL <= 0 {
		c.CodeTTL = 10 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Retention <= 0 {
		c.Retention = 24 * time.Hour
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	return c
}

func (c Config) validate() error {
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return ErrInvalidConfig
	}
	return nil
}
