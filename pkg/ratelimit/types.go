package ratelimit

import "time"

// Policy defines an attempt budget for one action kind.
type Policy struct {
	Limit  int           // Maximum attempts per window.
	Window time.Duration // Counting window length.
}

func (p Policy) validate() error {
	if p.Limit <= 0 || p.Window <= 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// Escalation controls how lockouts grow for repeat offenders. The first
// breach only blocks until the counting window resets; repeat violations
// within Window of each other step the lockout duration BaseLockout,
// 2*BaseLockout, 4*BaseLockout... capped at MaxLockout.
type Escalation struct {
	BaseLockout time.Duration // First lockout duration.
	MaxLockout  time.Duration // Upper bound for escalated lockouts.
	Window      time.Duration // How long a violation counts toward escalation.
}

// DefaultEscalation mirrors the product policy: 30m, then 1h, then 2h for
// violations within the same hour.
func DefaultEscalation() Escalation {
	return Escalation{
		BaseLockout: 30 * time.Minute,
		MaxLockout:  2 * time.Hour,
		Window:      time.Hour,
	}
}

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time // When the current window or lockout ends.
}

// RetryAfter returns how long the caller should wait before retrying.
// Zero when the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}
