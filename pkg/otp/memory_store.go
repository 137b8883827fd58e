package otp

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for development and tests. A janitor
// goroutine sweeps tokens past their retention window when a cleanup interval
// is configured.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*Token

	retention   time.Duration
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewMemoryStore creates an in-memory token store. A zero cleanupInterval
// disables the background janitor (useful in tests).
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		tokens:      make(map[uuid.UUID]*Token),
		retention:   24 * time.Hour,
		stopCleanup: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}

	return s
}

func (s *MemoryStore) CreateExclusive(_ context.Context, token *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, t := range s.tokens {
		if t.UserID == token.UserID && t.Kind == token.Kind && !t.Consumed() && !t.Expired(now) {
			consumed := now
			t.ConsumedAt = &consumed
		}
	}

	cp := *token
	s.tokens[token.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[id]
	if !ok {
		return nil, ErrTokenNotFound
	}

	cp := *t
	return &cp, nil
}

func (s *MemoryStore) RecordFailure(_ context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[id]
	if !ok {
		return 0, ErrTokenNotFound
	}

	if t.Attempts < t.MaxAttempts {
		t.Attempts++
	}
	return t.Attempts, nil
}

func (s *MemoryStore) MarkConsumed(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[id]
	if !ok || t.Consumed() {
		return ErrTokenNotFound
	}

	t.ConsumedAt = &at
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, retention time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-retention)
	var removed int64
	for id, t := range s.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(s.tokens, id)
			removed++
		}
	}
	return removed, nil
}

// Close stops the janitor goroutine.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.DeleteExpired(context.Background(), s.retention)
		case <-s.stopCleanup:
			return
		}
	}
}
