package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists verification tokens in PostgreSQL. Invalidation and insert
// run in a single transaction, and the attempt counter is advanced with an
// atomic row-level update, so no application-side locking is needed.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PostgreSQL-backed token store. The schema is expected
// to be managed by migrations (see internal/db/migrations).
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) CreateExclusive(ctx context.Context, token *Token) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Invalidate-then-insert inside one transaction keeps the single-active
	// invariant even under concurrent issue requests. Expired-but-unconsumed
	// tokens are closed out too, keeping the partial unique index on
	// (user_id, kind) WHERE consumed_at IS NULL satisfiable.
	if _, err := tx.Exec(ctx, `
		UPDATE verification_tokens
		SET consumed_at = now()
		WHERE user_id = $1 AND kind = $2 AND consumed_at IS NULL`,
		token.UserID, token.Kind,
	); err != nil {
		return fmt.Errorf("failed to invalidate prior tokens: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO verification_tokens (id, user_id, kind, code_hash, created_at, expires_at, attempts, max_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		token.ID, token.UserID, token.Kind, token.CodeHash,
		token.CreatedAt, token.ExpiresAt, token.Attempts, token.MaxAttempts,
	); err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Token, error) {
	var t Token
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, kind, code_hash, created_at, expires_at, consumed_at, attempts, max_attempts
		FROM verification_tokens
		WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.UserID, &t.Kind, &t.CodeHash, &t.CreatedAt, &t.ExpiresAt, &t.ConsumedAt, &t.Attempts, &t.MaxAttempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	return &t, nil
}

func (s *PGStore) RecordFailure(ctx context.Context, id uuid.UUID) (int, error) {
	var attempts int
	err := s.pool.QueryRow(ctx, `
		UPDATE verification_tokens
		SET attempts = LEAST(attempts + 1, max_attempts)
		WHERE id = $1
		RETURNING attempts`,
		id,
	).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrTokenNotFound
		}
		return 0, fmt.Errorf("failed to record attempt: %w", err)
	}

	return attempts, nil
}

func (s *PGStore) MarkConsumed(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE verification_tokens
		SET consumed_at = $2
		WHERE id = $1 AND consumed_at IS NULL`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to consume token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}

	return nil
}

func (s *PGStore) DeleteExpired(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM verification_tokens
		WHERE expires_at < now() - ($1 * interval '1 second')`,
		retention.Seconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	return tag.RowsAffected(), nil
}
