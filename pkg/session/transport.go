package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/tutorbase/authkit/pkg/cookie"
)

// Transport moves session tokens between client and server.
type Transport interface {
	// GetToken extracts the session token from the request.
	GetToken(r *http.Request) (string, error)

	// SetToken sends the session token in the response.
	SetToken(w http.ResponseWriter, token string, ttl time.Duration) error

	// ClearToken removes the session token from the response.
	ClearToken(w http.ResponseWriter) error
}

// CookieTransport carries the token in a signed cookie. This is the default
// for browser and webview clients.
type CookieTransport struct {
	manager *cookie.Manager
	name    string
	secure  bool
}

// NewCookieTransport creates a signed-cookie transport.
func NewCookieTransport(manager *cookie.Manager, name string, secure bool) *CookieTransport {
	return &CookieTransport{manager: manager, name: name, secure: secure}
}

func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	token, err := t.manager.GetSigned(r, t.name)
	if err != nil {
		return "", ErrSessionNotFound
	}
	return token, nil
}

func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	t.manager.SetSigned(w, t.name, token,
		cookie.WithMaxAge(int(ttl.Seconds())),
		cookie.WithSecure(t.secure),
	)
	return nil
}

func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	t.manager.Delete(w, t.name)
	return nil
}

// HeaderTransport carries the token in an Authorization bearer header; used
// by API clients that don't speak cookies. It cannot set tokens — the token
// is returned in the sign-in response body instead.
type HeaderTransport struct{}

func (HeaderTransport) GetToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", ErrSessionNotFound
	}
	return token, nil
}

func (HeaderTransport) SetToken(http.ResponseWriter, string, time.Duration) error {
	return nil
}

func (HeaderTransport) ClearToken(http.ResponseWriter) error {
	return nil
}

// MultiTransport tries several transports in order for reads and writes
// through the first one for responses.
type MultiTransport struct {
	transports []Transport
}

// NewMultiTransport chains transports; reads succeed with the first match.
func NewMultiTransport(transports ...Transport) *MultiTransport {
	return &MultiTransport{transports: transports}
}

func (t *MultiTransport) GetToken(r *http.Request) (string, error) {
	for _, tr := range t.transports {
		if token, err := tr.GetToken(r); err == nil {
			return token, nil
		}
	}
	return "", ErrSessionNotFound
}

func (t *MultiTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	if len(t.transports) == 0 {
		return ErrNoTransport
	}
	return t.transports[0].SetToken(w, token, ttl)
}

func (t *MultiTransport) ClearToken(w http.ResponseWriter) error {
	if len(t.transports) == 0 {
		return ErrNoTransport
	}
	return t.transports[0].ClearToken(w)
}
