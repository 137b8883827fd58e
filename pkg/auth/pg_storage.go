package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorbase/authkit/pkg/pg"
)

// PGStorage persists users in PostgreSQL. Uniqueness of canonical email and
// phone is enforced by the users_email_key and users_phone_key constraints,
// so concurrent signups with the same contact lose cleanly at commit time.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates a PostgreSQL-backed user store.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

const userColumns = `id, email, phone, email_verified_at, phone_verified_at, preferred_channel, grace_deadline, created_at`

func (s *PGStorage) Create(ctx context.Context, user *User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.Phone,
		user.EmailVerifiedAt, user.PhoneVerifiedAt,
		string(user.PreferredChannel), user.GraceDeadline, user.CreatedAt,
	)
	if err != nil {
		switch {
		case pg.IsUniqueViolation(err, "users_email_key"):
			return ErrEmailTaken
		case pg.IsUniqueViolation(err, "users_phone_key"):
			return ErrPhoneTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *PGStorage) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.getBy(ctx, "id = $1", id)
}

func (s *PGStorage) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.getBy(ctx, "email = $1", email)
}

func (s *PGStorage) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return s.getBy(ctx, "phone = $1", phone)
}

func (s *PGStorage) getBy(ctx context.Context, cond string, arg any) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg)

	var (
		user    User
		phone   *string
		channel string
	)
	err := row.Scan(
		&user.ID, &user.Email, &phone,
		&user.EmailVerifiedAt, &user.PhoneVerifiedAt,
		&channel, &user.GraceDeadline, &user.CreatedAt,
	)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if phone != nil {
		user.Phone = *phone
	}
	user.PreferredChannel = Channel(channel)
	return &user, nil
}

func (s *PGStorage) MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.markVerified(ctx, "email_verified_at", id, at)
}

func (s *PGStorage) MarkPhoneVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.markVerified(ctx, "phone_verified_at", id, at)
}

// markVerified is set-once: COALESCE keeps the original timestamp when the
// contact was already verified, so retries and duplicate deliveries are no-ops.
func (s *PGStorage) markVerified(ctx context.Context, column string, id uuid.UUID, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET `+column+` = COALESCE(`+column+`, $2) WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to mark contact verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
