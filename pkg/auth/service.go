package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tutorbase/authkit/pkg/contact"
)

// Service implements account lifecycle: signup, lookup, and the one-way
// verified-contact transitions.
type Service struct {
	storage Storage
	config  Config
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the account service.
func NewService(storage Storage, cfg Config, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		config:  cfg.withDefaults(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SignUp registers a new account. Email is required; phone is optional and
// must normalize to a unique E.164 number. The grace deadline is fixed here
// and never extended afterwards.
func (s *Service) SignUp(ctx context.Context, email, phone string, preferred Channel) (*User, error) {
	canonicalEmail, err := contact.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	var canonicalPhone string
	if phone != "" {
		canonicalPhone, err = contact.NormalizePhone(phone, s.config.PhoneRegion)
		if err != nil {
			return nil, err
		}
	}

	if preferred == "" {
		preferred = ChannelEmail
	}
	if preferred == ChannelSMS && canonicalPhone == "" {
		preferred = ChannelEmail
	}

	now := s.now()
	user := &User{
		ID:               uuid.New(),
		Email:            canonicalEmail,
		Phone:            canonicalPhone,
		PreferredChannel: preferred,
		GraceDeadline:    now.Add(s.config.GracePeriod),
		CreatedAt:        now,
	}

	if err := s.storage.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed up",
		slog.String("user_id", user.ID.String()),
		slog.String("email", contact.MaskEmail(user.Email)),
	)

	return user, nil
}

// LookupByContact finds a user by a raw email or phone identifier. The
// identifier is normalized before lookup so formatting differences don't
// create phantom accounts.
func (s *Service) LookupByContact(ctx context.Context, identifier string) (*User, error) {
	if canonicalEmail, err := contact.NormalizeEmail(identifier); err == nil {
		return s.storage.GetByEmail(ctx, canonicalEmail)
	}

	canonicalPhone, err := contact.NormalizePhone(identifier, s.config.PhoneRegion)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is neither email nor phone", contact.ErrInvalidFormat, identifier)
	}
	return s.storage.GetByPhone(ctx, canonicalPhone)
}

// GetByID returns the user by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.storage.GetByID(ctx, id)
}

// MarkVerified flips the verified flag for the given kind of contact. The
// transition is irreversible; repeating it is a no-op.
func (s *Service) MarkVerified(ctx context.Context, id uuid.UUID, channel Channel) error {
	now := s.now()
	switch channel {
	case ChannelSMS:
		return s.storage.MarkPhoneVerified(ctx, id, now)
	case ChannelEmail:
		return s.storage.MarkEmailVerified(ctx, id, now)
	default:
		return errors.New("auth: unknown channel")
	}
}

// GracePeriod exposes the configured grace window.
func (s *Service) GracePeriod() time.Duration {
	return s.config.GracePeriod
}
