package verification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/tutorbase/authkit/pkg/auth"
	"github.com/tutorbase/authkit/pkg/email"
	"github.com/tutorbase/authkit/pkg/otp"
	"github.com/tutorbase/authkit/pkg/ratelimit"
	"github.com/tutorbase/authkit/pkg/session"
	"github.com/tutorbase/authkit/pkg/sms"
)

// Service wires accounts, one-time codes, delivery channels, and sessions
// behind the module's HTTP handlers.
type Service struct {
	config       Config
	accounts     *auth.Service
	codes        *otp.Service
	sessions     *session.Manager
	mailer       email.Sender
	texter       sms.Sender
	requestLimit *ratelimit.Limiter
	signinLimit  *ratelimit.Limiter
	logger       *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRateLimiters attaches the per-account limiters for code issuance and
// verification attempts. Without them only the per-IP middleware budget
// applies.
func WithRateLimiters(request, signin *ratelimit.Limiter) Option {
	return func(s *Service) {
		s.requestLimit = request
		s.signinLimit = signin
	}
}

// NewService creates the verification module service.
func NewService(
	cfg Config,
	accounts *auth.Service,
	codes *otp.Service,
	sessions *session.Manager,
	mailer email.Sender,
	texter sms.Sender,
	opts ...Option,
) *Service {
	s := &Service{
		config:   cfg.withDefaults(),
		accounts: accounts,
		codes:    codes,
		sessions: sessions,
		mailer:   mailer,
		texter:   texter,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// issueAndDeliver issues a fresh code for the user and sends it over the
// requested channel. Delivery failure does not invalidate the issued token;
// the caller may resend.
func (s *Service) issueAndDeliver(ctx context.Context, user *auth.User, kind otp.Kind, channel auth.Channel) (uuid.UUID, error) {
	issued, err := s.codes.Issue(ctx, user.ID, kind)
	if err != nil {
		return uuid.Nil, err
	}

	switch channel {
	case auth.ChannelSMS:
		if user.Phone == "" {
			return uuid.Nil, errors.New("verification: user has no phone on file")
		}
		if err := s.texter.SendSMS(ctx, user.Phone, sms.CodeMessage(issued.Code, s.codes.Config().CodeTTL)); err != nil {
			s.logger.ErrorContext(ctx, "failed to deliver code over sms",
				slog.String("user_id", user.ID.String()),
				slog.Any("error", err),
			)
		}
	default:
		subject := "Your sign-in code"
		title := "Sign in to your account"
		if kind == otp.KindEmailVerify {
			subject = "Verify your email"
			title = "Verify your email"
		}
		body, err := email.CodeBody(title, issued.Code, s.codes.Config().CodeTTL)
		if err != nil {
			return uuid.Nil, err
		}
		err = s.mailer.SendEmail(ctx, email.SendEmailParams{
			SendTo:   user.Email,
			Subject:  subject,
			BodyHTML: body,
			Tag:      string(kind),
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to deliver code over email",
				slog.String("user_id", user.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	return issued.TokenID, nil
}

// magicLinkURL builds the full link delivered in magic link emails.
func (s *Service) magicLinkURL(token string) string {
	return s.config.BaseURL + "/auth/magic/verify?token=" + url.QueryEscape(token)
}
