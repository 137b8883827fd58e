package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const minSecretLength = 32

// Manager reads and writes cookies, optionally signing their values.
type Manager struct {
	secrets  []string
	defaults Options
}

// New creates a cookie manager. The first secret signs new cookies; every
// secret is accepted during verification, which allows rotation without
// invalidating live sessions.
func New(secrets []string, opts ...Option) (*Manager, error) {
	cleaned := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoSecret
	}
	for i, s := range cleaned {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
	}

	defaults := applyOptions(Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, opts)

	return &Manager{secrets: cleaned, defaults: defaults}, nil
}

// Set writes a plain cookie.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	options := applyOptions(m.defaults, opts)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
}

// Get reads a plain cookie value.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// SetSigned writes a cookie whose value carries an HMAC signature bound to
// the cookie name.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, opts ...Option) {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(value))
	sig := sign(name, value, m.secrets[0])
	m.Set(w, name, encoded+"."+sig, opts...)
}

// GetSigned reads and verifies a signed cookie value.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	encoded, sig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrSignatureInvalid
	}

	decoded, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrSignatureInvalid
	}
	value := string(decoded)

	for _, secret := range m.secrets {
		expected := sign(name, value, secret)
		if subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) == 1 {
			return value, nil
		}
	}

	return "", ErrSignatureInvalid
}

// Delete expires the cookie immediately.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     m.defaults.Path,
		Domain:   m.defaults.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.defaults.Secure,
		HttpOnly: m.defaults.HttpOnly,
		SameSite: m.defaults.SameSite,
	})
}

func sign(name, value, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(name))
	h.Write([]byte{'|'})
	h.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
