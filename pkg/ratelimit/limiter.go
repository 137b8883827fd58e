package ratelimit

import (
	"context"
	"time"
)

// Limiter enforces a Policy per key with escalating lockouts on violation.
type Limiter struct {
	store      Store
	policy     Policy
	escalation Escalation
	now        func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithEscalation overrides the default escalation policy.
func WithEscalation(e Escalation) Option {
	return func(l *Limiter) { l.escalation = e }
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter over the given store.
func New(store Store, policy Policy, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if err := policy.validate(); err != nil {
		return nil, err
	}

	l := &Limiter{
		store:      store,
		policy:     policy,
		escalation: DefaultEscalation(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Allow admits or denies one attempt for key, recording it when admitted.
//
// Lockout state is consulted before the counter so locked-out callers cost a
// single read and never advance the window. The first breach of the limit
// denies only until the counting window resets; repeat violations within the
// escalation window start extended lockouts.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	now := l.now()

	lockout, err := l.store.GetLockout(ctx, key)
	if err != nil {
		return nil, err
	}
	if lockout.Active(now) {
		return &Result{
			Allowed: false,
			Limit:   l.policy.Limit,
			ResetAt: lockout.Until,
		}, nil
	}

	count, resetAt, err := l.store.Incr(ctx, key, l.policy.Window)
	if err != nil {
		return nil, err
	}

	if count > int64(l.policy.Limit) {
		// First breach blocks only for the rest of the counting window; the
		// violation record still sticks around for the escalation window so a
		// repeat offense gets an extended lockout.
		until := resetAt
		if lockout.Violations > 0 {
			until = now.Add(l.lockoutFor(lockout.Violations))
		}
		ttl := l.escalation.Window
		if rem := until.Sub(now); rem > ttl {
			ttl = rem
		}
		if err := l.store.SetLockout(ctx, key, Lockout{Until: until, Violations: lockout.Violations + 1}, ttl); err != nil {
			return nil, err
		}

		return &Result{
			Allowed: false,
			Limit:   l.policy.Limit,
			ResetAt: until,
		}, nil
	}

	return &Result{
		Allowed:   true,
		Limit:     l.policy.Limit,
		Remaining: l.policy.Limit - int(count),
		ResetAt:   resetAt,
	}, nil
}

// Reset clears all limiter state for key. Used after successful
// authentication so earlier failures stop counting against the caller.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return l.store.Reset(ctx, key)
}

// lockoutFor returns the lockout duration for a repeat offense with the given
// number of prior violations inside the escalation window: BaseLockout for the
// first repeat, doubling per repeat up to MaxLockout.
func (l *Limiter) lockoutFor(priorViolations int) time.Duration {
	dur := l.escalation.BaseLockout
	for i := 1; i < priorViolations; i++ {
		dur *= 2
		if dur >= l.escalation.MaxLockout {
			return l.escalation.MaxLockout
		}
	}
	return dur
}
