package session

import "context"

// Store defines session persistence.
type Store interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by token. Returns ErrSessionNotFound when the
	// token resolves to nothing.
	Get(ctx context.Context, token string) (*Session, error)

	// Update replaces an existing session.
	Update(ctx context.Context, session *Session) error

	// Delete removes a session by token. Deleting a missing session is a no-op.
	Delete(ctx context.Context, token string) error

	// DeleteByUserID removes all sessions belonging to a user.
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired removes expired sessions.
	DeleteExpired(ctx context.Context) error
}
