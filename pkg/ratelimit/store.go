package ratelimit

import (
	"context"
	"time"
)

// Lockout is the persisted lockout state for a key.
type Lockout struct {
	Until      time.Time // End of the active lockout; zero when not locked.
	Violations int       // Violations recorded within the escalation window.
}

// Active reports whether the lockout is in force at the given instant.
func (l Lockout) Active(now time.Time) bool {
	return now.Before(l.Until)
}

// Store is the counter backend. Implementations need only atomic
// increment-with-expiry semantics; no cross-key consistency is required.
type Store interface {
	// Incr increments the attempt counter for key, starting a new window with
	// the given TTL when the counter does not exist. Returns the new count and
	// when the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)

	// GetLockout returns the lockout state for key; the zero Lockout when none.
	GetLockout(ctx context.Context, key string) (Lockout, error)

	// SetLockout stores the lockout state, retained for ttl.
	SetLockout(ctx context.Context, key string, lockout Lockout, ttl time.Duration) error

	// Reset clears counter and lockout state for key.
	Reset(ctx context.Context, key string) error
}
