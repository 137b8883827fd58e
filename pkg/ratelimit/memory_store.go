package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for single-instance deployments and
// tests. Expired entries are swept by a background janitor.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	lockouts map[string]*lockoutEntry

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type counter struct {
	count   int64
	resetAt time.Time
}

type lockoutEntry struct {
	lockout   Lockout
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store. A zero cleanupInterval disables
// the janitor.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		counters:    make(map[string]*counter),
		lockouts:    make(map[string]*lockoutEntry),
		stopCleanup: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}

	return s
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c, ok := s.counters[key]
	if !ok || now.After(c.resetAt) {
		c = &counter{resetAt: now.Add(window)}
		s.counters[key] = c
	}

	c.count++
	return c.count, c.resetAt, nil
}

func (s *MemoryStore) GetLockout(_ context.Context, key string) (Lockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lockouts[key]
	if !ok || time.Now().After(e.expiresAt) {
		return Lockout{}, nil
	}
	return e.lockout, nil
}

func (s *MemoryStore) SetLockout(_ context.Context, key string, lockout Lockout, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lockouts[key] = &lockoutEntry{
		lockout:   lockout,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.counters, key)
	delete(s.lockouts, key)
	return nil
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
			s.sweep()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, c := range s.counters {
		if now.After(c.resetAt) {
			delete(s.counters, key)
		}
	}
	for key, e := range s.lockouts {
		if now.After(e.expiresAt) {
			delete(s.lockouts, key)
		}
	}
}
