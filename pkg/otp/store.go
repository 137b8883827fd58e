package otp

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines the persistence operations required by the OTP service.
type Store interface {
	// CreateExclusive invalidates any active (unconsumed, unexpired) token for
	// the same (user, kind) pair and inserts the new token. Both steps happen
	// atomically so two outstanding codes can never be valid at once.
	CreateExclusive(ctx context.Context, token *Token) error

	// Get returns the token by ID, consumed or not.
	// Returns ErrTokenNotFound when no such token exists.
	Get(ctx context.Context, id uuid.UUID) (*Token, error)

	// RecordFailure atomically increments the attempt counter and returns the
	// new count. The counter never exceeds the token's MaxAttempts.
	RecordFailure(ctx context.Context, id uuid.UUID) (int, error)

	// MarkConsumed sets the consumed timestamp. Consuming an already consumed
	// token returns ErrTokenNotFound.
	MarkConsumed(ctx context.Context, id uuid.UUID, at time.Time) error

	// DeleteExpired removes tokens whose expiry is older than the retention
	// window, regardless of outcome. Returns the number of rows removed.
	DeleteExpired(ctx context.Context, retention time.Duration) (int64, error)
}
