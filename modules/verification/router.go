package verification

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tutorbase/authkit/pkg/gate"
	"github.com/tutorbase/authkit/pkg/ratelimit"
)

// Router builds the module's chi router. Code-request endpoints carry the
// issuance budget, verify endpoints the sign-in budget; both are enforced
// per client IP here and per account inside the handlers.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()

	requestBudget := s.ipMiddleware(s.requestLimit)
	signinBudget := s.ipMiddleware(s.signinLimit)

	r.Group(func(r chi.Router) {
		r.Use(requestBudget)
		r.Post("/signup", s.handleSignup)
		r.Post("/otp/request", s.handleRequestCode)
		r.Post("/otp/resend", s.handleRequestCode)
		r.Post("/magic/request", s.handleMagicRequest)
	})

	r.Group(func(r chi.Router) {
		r.Use(signinBudget)
		r.Post("/otp/verify", s.handleVerifyCode)
		r.Get("/magic/verify", s.handleMagicVerify)
	})

	r.Get("/status", s.handleStatus)
	r.Post("/logout", s.handleLogout)

	return r
}

func (s *Service) ipMiddleware(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimit.Middleware(limiter, ratelimit.ByClientIP())
}

// GateResolver maps the caller's session to the verification gate's view of
// the account. Requests without a session are not gated; authentication is a
// separate concern.
func (s *Service) GateResolver() gate.Resolver {
	return func(r *http.Request) (gate.Account, bool) {
		sess, err := s.sessions.Get(r.Context(), r)
		if err != nil {
			return gate.Account{}, false
		}

		user, err := s.accounts.GetByID(r.Context(), sess.UserID)
		if err != nil {
			return gate.Account{}, false
		}

		return gate.Account{
			Verified:      user.IsVerified(),
			GraceDeadline: user.GraceDeadline,
		}, true
	}
}
