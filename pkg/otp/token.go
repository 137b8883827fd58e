package otp

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates what a verification token proves.
type Kind string

const (
	KindEmailVerify Kind = "email_verify"
	KindPhoneVerify Kind = "phone_verify"
	KindSigninOTP   Kind = "signin_otp"
)

// Valid reports whether the kind is one of the known values.
func (k Kind) Valid() bool {
	switch k {
	case KindEmailVerify, KindPhoneVerify, KindSigninOTP:
		return true
	}
	return false
}

// Token is a stored verification token. The plaintext code is never persisted;
// only its bcrypt hash is kept.
type Token struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Kind        Kind
	CodeHash    []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
	ConsumedAt  *time.Time
	Attempts    int
	MaxAttempts int
}

// Consumed reports whether the token has already been used.
func (t *Token) Consumed() bool {
	return t != nil && t.ConsumedAt != nil
}

// Expired reports whether the token's expiry has passed at the given instant.
func (t *Token) Expired(now time.Time) bool {
	return t != nil && now.After(t.ExpiresAt)
}

// Usable reports whether the token can still be verified: not consumed, not
// expired, and with attempts left.
func (t *Token) Usable(now time.Time) bool {
	return t != nil && !t.Consumed() && !t.Expired(now) && t.Attempts < t.MaxAttempts
}
