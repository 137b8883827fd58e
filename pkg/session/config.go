package session

import "time"

// Config holds session policy. Durations are policy constants, not security
// boundaries: classification is client-reported and only tunes how often the
// user re-authenticates.
type Config struct {
	CookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"sid"`
	BrowserTTL      time.Duration `env:"SESSION_BROWSER_TTL" envDefault:"24h"`     // BrowserTTL is the session duration for plain browsers.
	InstalledAppTTL time.Duration `env:"SESSION_APP_TTL" envDefault:"168h"`        // InstalledAppTTL is the session duration for installed apps (7 days).
	SecureCookies   bool          `env:"SESSION_SECURE_COOKIES" envDefault:"true"` // SecureCookies marks the session cookie Secure.
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"10m"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CookieName:      "sid",
		BrowserTTL:      24 * time.Hour,
		InstalledAppTTL: 7 * 24 * time.Hour,
		SecureCookies:   true,
		CleanupInterval: 10 * time.Minute,
	}
}

// DurationFor returns the session duration policy for a client kind.
func (c Config) DurationFor(kind ClientKind) time.Duration {
	if kind == KindInstalledApp {
		return c.InstalledAppTTL
	}
	return c.BrowserTTL
}
