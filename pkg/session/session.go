package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is an authenticated session. Expiry is absolute: creation time plus
// the duration assigned to the client kind at establishment.
type Session struct {
	ID         uuid.UUID  `json:"id"`
	Token      string     `json:"token"`
	UserID     uuid.UUID  `json:"user_id"`
	ClientKind ClientKind `json:"client_kind"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// IsExpired reports whether the session has expired.
func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}
