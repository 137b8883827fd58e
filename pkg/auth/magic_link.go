package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tutorbase/authkit/pkg/contact"
	"github.com/tutorbase/authkit/pkg/token"
)

// SubjectMagicLink tags magic link payloads so tokens minted for other
// purposes cannot be replayed here.
const SubjectMagicLink = "magic_link"

// MagicLinkPayload is the signed content of a magic link token.
type MagicLinkPayload struct {
	Email   string `json:"email"`
	Subject string `json:"sub"`
	Exp     int64  `json:"exp"`
}

// MagicLinkRequest is the issued link data, handed to the delivery channel.
type MagicLinkRequest struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}

// RequestMagicLink issues a magic link token for the given email.
// Unknown addresses auto-register: the HTTP layer answers uniformly either
// way, so this does not leak account existence and removes a signup step.
func (s *Service) RequestMagicLink(ctx context.Context, email string) (*MagicLinkRequest, error) {
	canonical, err := contact.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if _, err := s.storage.GetByEmail(ctx, canonical); err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("failed to check user: %w", err)
		}
		if _, err := s.SignUp(ctx, canonical, "", ChannelEmail); err != nil {
			return nil, fmt.Errorf("failed to auto-register user: %w", err)
		}
	}

	expiresAt := s.now().Add(s.config.MagicLinkTTL)
	tok, err := token.Generate(MagicLinkPayload{
		Email:   canonical,
		Subject: SubjectMagicLink,
		Exp:     expiresAt.Unix(),
	}, s.config.TokenSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate magic link token: %w", err)
	}

	return &MagicLinkRequest{
		Email:     canonical,
		Token:     tok,
		ExpiresAt: expiresAt,
	}, nil
}

// VerifyMagicLink validates a magic link token, marks the email verified, and
// returns the authenticated user.
func (s *Service) VerifyMagicLink(ctx context.Context, magicLinkToken string) (*User, error) {
	payload, err := token.Parse[MagicLinkPayload](magicLinkToken, s.config.TokenSecret)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	if payload.Subject != SubjectMagicLink {
		return nil, ErrTokenInvalid
	}

	if s.now().Unix() > payload.Exp {
		return nil, ErrTokenExpired
	}

	user, err := s.storage.GetByEmail(ctx, payload.Email)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if user.EmailVerifiedAt == nil {
		now := s.now()
		if err := s.storage.MarkEmailVerified(ctx, user.ID, now); err != nil {
			return nil, fmt.Errorf("failed to mark email verified: %w", err)
		}
		user.EmailVerifiedAt = &now
	}

	return user, nil
}
