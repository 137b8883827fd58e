package gate

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// State is the verification state of an account.
type State string

const (
	// StateUnverifiedInGrace grants full access until the grace deadline.
	StateUnverifiedInGrace State = "unverified_in_grace"

	// StateUnverifiedExpired blocks everything outside the allow-list.
	StateUnverifiedExpired State = "unverified_expired"

	// StateVerified is terminal; verification flags never flip back.
	StateVerified State = "verified"
)

// Account is the verification-relevant view of a user.
type Account struct {
	Verified      bool      // true once email OR phone is verified
	GraceDeadline time.Time // set once at signup, never extended
}

// StateFor computes the account's state at the given instant.
func StateFor(a Account, now time.Time) State {
	if a.Verified {
		return StateVerified
	}
	if now.After(a.GraceDeadline) {
		return StateUnverifiedExpired
	}
	return StateUnverifiedInGrace
}

// Resolver extracts the account for a request. ok is false for
// unauthenticated requests, which pass through the gate untouched — they are
// someone else's problem (the session layer's).
type Resolver func(r *http.Request) (account Account, ok bool)

// Config holds the gate policy.
type Config struct {
	// AllowPaths are request paths reachable in the expired state. Entries
	// ending in "*" match by prefix.
	AllowPaths []string

	// RedirectURL is where browser clients land when blocked.
	RedirectURL string
}

// DefaultConfig allows the authentication surface and logout through the
// gate, so a blocked user can always verify or leave.
func DefaultConfig() Config {
	return Config{
		AllowPaths: []string{
			"/auth/*",
			"/verification/*",
			"/verification-required",
			"/logout",
			"/healthz",
		},
		RedirectURL: "/verification-required",
	}
}

// Gate is the verification enforcement middleware.
type Gate struct {
	resolve Resolver
	config  Config
	now     func() time.Time
}

// Option configures the Gate.
type Option func(*Gate)

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// New creates a gate using the given resolver and policy.
func New(resolve Resolver, cfg Config, opts ...Option) *Gate {
	if len(cfg.AllowPaths) == 0 {
		cfg.AllowPaths = DefaultConfig().AllowPaths
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = DefaultConfig().RedirectURL
	}

	g := &Gate{
		resolve: resolve,
		config:  cfg,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

type contextKey struct{}

// StateFromContext returns the state the gate computed for the request, when
// the gate ran.
func StateFromContext(ctx context.Context) (State, bool) {
	s, ok := ctx.Value(contextKey{}).(State)
	return s, ok
}

// Middleware enforces the gate. In-grace and verified accounts proceed;
// expired ones are redirected (browsers) or refused (API clients) unless the
// path is allow-listed.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := g.resolve(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		state := StateFor(account, g.now())
		r = r.WithContext(context.WithValue(r.Context(), contextKey{}, state))

		if state != StateUnverifiedExpired || g.allowed(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if wantsHTML(r) {
			http.Redirect(w, r, g.config.RedirectURL, http.StatusSeeOther)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"contact verification required"}`))
	})
}

func (g *Gate) allowed(path string) bool {
	for _, allow := range g.config.AllowPaths {
		if prefix, ok := strings.CutSuffix(allow, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
			continue
		}
		if path == allow {
			return true
		}
	}
	return false
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
