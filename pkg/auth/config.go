package auth

import "time"

// Config holds account policy.
type Config struct {
	GracePeriod  time.Duration `env:"AUTH_GRACE_PERIOD" envDefault:"72h"`   // GracePeriod is how long an unverified account keeps full access.
	PhoneRegion  string        `env:"AUTH_PHONE_REGION" envDefault:""`      // PhoneRegion is the default region for national-format phone numbers; empty fails closed.
	TokenSecret  string        `env:"AUTH_TOKEN_SECRET,required"`           // TokenSecret signs magic link tokens.
	MagicLinkTTL time.Duration `env:"AUTH_MAGIC_LINK_TTL" envDefault:"15m"` // MagicLinkTTL is the magic link validity window.
}

func (c Config) withDefaults() Config {
	if c.GracePeriod <= 0 {
		c.GracePeriod = 72 * time.Hour
	}
	if c.MagicLinkTTL <= 0 {
		// Short TTL limits replay exposure without server-side tracking.
		c.MagicLinkTTL = 15 * time.Minute
	}
	return c
}
