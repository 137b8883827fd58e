package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory Storage for tests and development.
type MemoryStorage struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*User
	byEmail map[string]uuid.UUID
	byPhone map[string]uuid.UUID
}

// NewMemoryStorage creates an empty in-memory user store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:   make(map[uuid.UUID]*User),
		byEmail: make(map[string]uuid.UUID),
		byPhone: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStorage) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return ErrEmailTaken
	}
	if user.Phone != "" {
		if _, ok := s.byPhone[user.Phone]; ok {
			return ErrPhoneTaken
		}
	}

	clone := *user
	s.users[user.ID] = &clone
	s.byEmail[user.Email] = user.ID
	if user.Phone != "" {
		s.byPhone[user.Phone] = user.ID
	}
	return nil
}

func (s *MemoryStorage) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *MemoryStorage) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *s.users[id]
	return &clone, nil
}

func (s *MemoryStorage) GetByPhone(_ context.Context, phone string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPhone[phone]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *s.users[id]
	return &clone, nil
}

func (s *MemoryStorage) MarkEmailVerified(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if user.EmailVerifiedAt == nil {
		user.EmailVerifiedAt = &at
	}
	return nil
}

func (s *MemoryStorage) MarkPhoneVerified(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if user.PhoneVerifiedAt == nil {
		user.PhoneVerifiedAt = &at
	}
	return nil
}
