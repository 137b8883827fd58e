package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// codeSpace is the number of possible 6-digit codes.
var codeSpace = big.NewInt(1_000_000)

// IssuedCode is the result of issuing a new one-time code. Code is the
// plaintext for out-of-band delivery; it is never persisted.
type IssuedCode struct {
	TokenID   uuid.UUID
	Code      string
	ExpiresAt time.Time
}

// VerifyResult is returned on successful verification.
type VerifyResult struct {
	UserID  uuid.UUID
	TokenID uuid.UUID
	Kind    Kind
}

// Attempt describes one verification attempt, successful or not.
type Attempt struct {
	TokenID uuid.UUID
	UserID  uuid.UUID
	Kind    Kind
	Success bool
	At      time.Time
}

// AttemptRecorder observes verification attempts for audit and rate limiting.
// Recorders must not block; failures are the recorder's problem.
type AttemptRecorder func(ctx context.Context, attempt Attempt)

// Service issues and verifies one-time codes against a Store.
type Service struct {
	store    Store
	config   Config
	logger   *slog.Logger
	recorder AttemptRecorder
	now      func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithAttemptRecorder registers an observer for verification attempts.
func WithAttemptRecorder(rec AttemptRecorder) Option {
	return func(s *Service) { s.recorder = rec }
}

// WithClock overrides the time source, letting tests control expiry
// deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an OTP service backed by the given store.
func NewService(store Store, cfg Config, opts ...Option) (*Service, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &Service{
		store:  store,
		config: cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Issue generates a new code for the user, invalidating any prior active token
// of the same kind. The returned plaintext code must be delivered out of band
// and is not recoverable afterwards.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID, kind Kind) (*IssuedCode, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown token kind %q", ErrInvalidConfig, kind)
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash code: %w", err)
	}

	now := s.now()
	tok := &Token{
		ID:          uuid.New(),
		UserID:      userID,
		Kind:        kind,
		CodeHash:    hash,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.config.CodeTTL),
		MaxAttempts: s.config.MaxAttempts,
	}

	if err := s.store.CreateExclusive(ctx, tok); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	s.logger.DebugContext(ctx, "issued one-time code",
		slog.String("token_id", tok.ID.String()),
		slog.String("kind", string(kind)),
	)

	return &IssuedCode{
		TokenID:   tok.ID,
		Code:      code,
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

// Verify checks a submitted code against the referenced token.
//
// The attempt counter is checked before any hash comparison so lockouts are
// enforced ahead of the timing-sensitive work. A consumed token is reported as
// not found rather than leaking its history.
func (s *Service) Verify(ctx context.Context, tokenID uuid.UUID, code string) (*VerifyResult, error) {
	tok, err := s.store.Get(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if tok.Consumed() {
		s.record(ctx, tok, false)
		return nil, ErrTokenNotFound
	}
	if tok.Expired(now) {
		s.record(ctx, tok, false)
		return nil, ErrTokenExpired
	}
	if tok.Attempts >= tok.MaxAttempts {
		s.record(ctx, tok, false)
		return nil, ErrTooManyAttempts
	}

	if err := bcrypt.CompareHashAndPassword(tok.CodeHash, []byte(code)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, fmt.Errorf("failed to compare code hash: %w", err)
		}

		attempts, recErr := s.store.RecordFailure(ctx, tokenID)
		if recErr != nil {
			return nil, fmt.Errorf("failed to record failed attempt: %w", recErr)
		}

		s.record(ctx, tok, false)

		remaining := tok.MaxAttempts - attempts
		if remaining <= 0 {
			return nil, ErrTooManyAttempts
		}
		return nil, &CodeMismatchError{Remaining: remaining}
	}

	if err := s.store.MarkConsumed(ctx, tokenID, now); err != nil {
		// A concurrent verify won the race; treat this one as stale.
		return nil, err
	}

	s.record(ctx, tok, true)

	return &VerifyResult{
		UserID:  tok.UserID,
		TokenID: tok.ID,
		Kind:    tok.Kind,
	}, nil
}

// Owner reports which user a token belongs to without spending an attempt.
// Callers use it to key per-account budgets before verifying.
func (s *Service) Owner(ctx context.Context, tokenID uuid.UUID) (uuid.UUID, error) {
	tok, err := s.store.Get(ctx, tokenID)
	if err != nil {
		return uuid.Nil, err
	}
	return tok.UserID, nil
}

// Cleanup removes tokens past the retention window. Intended to be called
// from a periodic sweep; safe to run concurrently with normal operation.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.config.Retention)
}

// Config returns the effective configuration after defaults.
func (s *Service) Config() Config {
	return s.config
}

func (s *Service) record(ctx context.Context, tok *Token, success bool) {
	if s.recorder == nil {
		return
	}
	s.recorder(ctx, Attempt{
		TokenID: tok.ID,
		UserID:  tok.UserID,
		Kind:    tok.Kind,
		Success: success,
		At:      s.now(),
	})
}

// generateCode returns a uniformly random zero-padded 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
