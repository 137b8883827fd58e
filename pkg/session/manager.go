package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tutorbase/authkit/pkg/cookie"
)

// Manager establishes, resolves, and destroys sessions.
type Manager struct {
	store         Store
	transport     Transport
	config        Config
	cookieManager *cookie.Manager
	now           func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithStore sets a custom session store.
func WithStore(store Store) Option {
	return func(m *Manager) { m.store = store }
}

// WithTransport sets a custom transport.
func WithTransport(transport Transport) Option {
	return func(m *Manager) { m.transport = transport }
}

// WithConfig sets the session policy.
func WithConfig(config Config) Option {
	return func(m *Manager) { m.config = config }
}

// WithCookieManager enables the default transport: signed cookie first, then
// bearer header for API clients.
func WithCookieManager(mgr *cookie.Manager) Option {
	return func(m *Manager) { m.cookieManager = mgr }
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a session manager. Without an explicit store an in-memory one
// is used; without an explicit transport a cookie manager is required.
func New(opts ...Option) *Manager {
	m := &Manager{
		config: DefaultConfig(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval)
	}

	if m.transport == nil {
		if m.cookieManager == nil {
			// Fail fast: running without a way to carry tokens is a
			// deployment error, not a runtime condition.
			panic("session: cookie manager is required when using the default transport")
		}
		m.transport = NewMultiTransport(
			NewCookieTransport(m.cookieManager, m.config.CookieName, m.config.SecureCookies),
			HeaderTransport{},
		)
	}

	return m
}

// Establish creates a session for the user after successful authentication.
// The duration follows the client classification: installed apps get the long
// TTL, browsers the short one.
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*Session, error) {
	kind := Classify(SignalsFromRequest(r))
	return m.EstablishAs(ctx, w, userID, kind)
}

// EstablishAs creates a session with an explicit client kind.
func (m *Manager) EstablishAs(ctx context.Context, w http.ResponseWriter, userID uuid.UUID, kind ClientKind) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := m.now()
	ttl := m.config.DurationFor(kind)
	sess := &Session{
		ID:         uuid.New(),
		Token:      token,
		UserID:     userID,
		ClientKind: kind,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}

	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}

	if err := m.transport.SetToken(w, token, ttl); err != nil {
		_ = m.store.Delete(ctx, token)
		return nil, err
	}

	return sess, nil
}

// Get resolves the request's session. Expired sessions are reported as
// ErrSessionExpired and removed.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}

	sess, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if m.now().After(sess.ExpiresAt) {
		_ = m.store.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	return sess, nil
}

// Reclassify re-evaluates the client kind of an existing session, extending
// its expiry when the new kind grants a longer lifetime. The expiry never
// moves backwards: time already granted stays granted.
func (m *Manager) Reclassify(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	sess, err := m.Get(ctx, r)
	if err != nil {
		return nil, err
	}

	kind := Classify(SignalsFromRequest(r))
	if kind == sess.ClientKind {
		return sess, nil
	}

	sess.ClientKind = kind
	if candidate := sess.CreatedAt.Add(m.config.DurationFor(kind)); candidate.After(sess.ExpiresAt) {
		sess.ExpiresAt = candidate
	}

	if err := m.store.Update(ctx, sess); err != nil {
		return nil, err
	}

	if err := m.transport.SetToken(w, sess.Token, sess.ExpiresAt.Sub(m.now())); err != nil {
		return nil, err
	}

	return sess, nil
}

// Destroy deletes the request's session and clears the client token.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if token, err := m.transport.GetToken(r); err == nil && token != "" {
		_ = m.store.Delete(ctx, token)
	}
	return m.transport.ClearToken(w)
}

// DestroyAll removes every session belonging to the user.
func (m *Manager) DestroyAll(ctx context.Context, userID uuid.UUID) error {
	return m.store.DeleteByUserID(ctx, userID.String())
}

// Config exposes the manager's policy, mainly for handlers that report
// session duration to clients.
func (m *Manager) Config() Config {
	return m.config
}

// generateToken returns a 256-bit random URL-safe token.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
