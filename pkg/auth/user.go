package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Channel is a user's preferred OTP delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// User is an account in the passwordless scheme. Phone is E.164 or empty;
// when present it is unique across users.
type User struct {
	ID               uuid.UUID
	Email            string
	Phone            string
	EmailVerifiedAt  *time.Time
	PhoneVerifiedAt  *time.Time
	PreferredChannel Channel
	GraceDeadline    time.Time
	CreatedAt        time.Time
}

// IsVerified reports whether at least one contact method is confirmed.
func (u *User) IsVerified() bool {
	return u != nil && (u.EmailVerifiedAt != nil || u.PhoneVerifiedAt != nil)
}

// Contact returns the identifier for the preferred delivery channel.
func (u *User) Contact() string {
	if u.PreferredChannel == ChannelSMS && u.Phone != "" {
		return u.Phone
	}
	return u.Email
}

// Storage defines user persistence. Implementations must enforce unique
// canonical emails and phones, and must treat the verified timestamps as
// set-once: marking an already verified contact is a no-op.
type Storage interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkPhoneVerified(ctx context.Context, id uuid.UUID, at time.Time) error
}
