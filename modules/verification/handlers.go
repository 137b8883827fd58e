package verification

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tutorbase/authkit/pkg/auth"
	"github.com/tutorbase/authkit/pkg/contact"
	"github.com/tutorbase/authkit/pkg/email"
	"github.com/tutorbase/authkit/pkg/gate"
	"github.com/tutorbase/authkit/pkg/otp"
	"github.com/tutorbase/authkit/pkg/ratelimit"
	"github.com/tutorbase/authkit/pkg/session"
)

type signupBody struct {
	Email            string `json:"email"`
	Phone            string `json:"phone,omitempty"`
	PreferredChannel string `json:"preferred_channel,omitempty"`
}

type signupResponse struct {
	UserID        uuid.UUID `json:"user_id"`
	TokenID       uuid.UUID `json:"token_id"`
	GraceDeadline time.Time `json:"grace_deadline"`
}

// handleSignup registers an account and immediately issues a verification
// code over the preferred channel. Conflicts on email or phone come back 422;
// signup is the one surface where existence disclosure is unavoidable.
func (s *Service) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupBody
	if err := decodeBody(r, &body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}

	user, err := s.accounts.SignUp(r.Context(), body.Email, body.Phone, auth.Channel(body.PreferredChannel))
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) || errors.Is(err, auth.ErrPhoneTaken) {
			respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
			return
		}
		s.respondError(w, r, err)
		return
	}

	kind := otp.KindEmailVerify
	if user.PreferredChannel == auth.ChannelSMS {
		kind = otp.KindPhoneVerify
	}

	tokenID, err := s.issueAndDeliver(r.Context(), user, kind, user.PreferredChannel)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, signupResponse{
		UserID:        user.ID,
		TokenID:       tokenID,
		GraceDeadline: user.GraceDeadline,
	})
}

type requestCodeBody struct {
	Identifier string `json:"identifier"`
	// Purpose is "signin" (default) or "verify". Verify codes confirm the
	// contact they were delivered to; signin codes establish a session.
	Purpose string `json:"purpose,omitempty"`
	Channel string `json:"channel,omitempty"`
}

type requestCodeResponse struct {
	Message   string    `json:"message"`
	TokenID   uuid.UUID `json:"token_id"`
	ExpiresIn int       `json:"expires_in"`
}

// handleRequestCode issues a one-time code for the identified contact. The
// response is identical whether or not the contact maps to an account; for
// unknown contacts a decoy token reference is returned so timing and shape
// give nothing away.
func (s *Service) handleRequestCode(w http.ResponseWriter, r *http.Request) {
	var body requestCodeBody
	if err := decodeBody(r, &body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	if strings.TrimSpace(body.Identifier) == "" {
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "identifier is required"})
		return
	}

	user, err := s.accounts.LookupByContact(r.Context(), body.Identifier)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respondJSON(w, http.StatusOK, requestCodeResponse{
				Message:   sentMessage,
				TokenID:   uuid.New(),
				ExpiresIn: int(s.codes.Config().CodeTTL.Seconds()),
			})
			return
		}
		s.respondError(w, r, err)
		return
	}

	if !s.accountAllowed(w, r, s.requestLimit, user) {
		return
	}

	channel := user.PreferredChannel
	if body.Channel != "" {
		channel = auth.Channel(body.Channel)
	}
	if channel == auth.ChannelSMS && user.Phone == "" {
		channel = auth.ChannelEmail
	}

	kind := otp.KindSigninOTP
	if body.Purpose == "verify" {
		kind = otp.KindEmailVerify
		if channel == auth.ChannelSMS {
			kind = otp.KindPhoneVerify
		}
	}

	tokenID, err := s.issueAndDeliver(r.Context(), user, kind, channel)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, requestCodeResponse{
		Message:   sentMessage,
		TokenID:   tokenID,
		ExpiresIn: int(s.codes.Config().CodeTTL.Seconds()),
	})
}

type verifyCodeBody struct {
	TokenID string `json:"token_id"`
	Code    string `json:"code"`
}

type verifyCodeResponse struct {
	Verified bool      `json:"verified"`
	UserID   uuid.UUID `json:"user_id"`
	// SessionToken lets cookie-less clients authenticate with a bearer
	// header; browsers get the same token in a signed cookie.
	SessionToken string     `json:"session_token,omitempty"`
	SessionID    *uuid.UUID `json:"session_id,omitempty"`
	ExpiresAt    *time.Time `json:"session_expires_at,omitempty"`
}

// handleVerifyCode checks a submitted code. Sign-in codes establish a session
// with a lifetime chosen by client classification; contact-verification codes
// flip the matching verified flag.
func (s *Service) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var body verifyCodeBody
	if err := decodeBody(r, &body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}

	tokenID, err := uuid.Parse(body.TokenID)
	if err != nil || body.Code == "" {
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "token_id and code are required"})
		return
	}

	// The sign-in budget keys on the owning account so attempts against any of
	// the account's tokens share one allowance. Unknown tokens (decoys
	// included) fall back to a per-token key, keeping the response uniform.
	budgetKey := "tok:" + tokenID.String()
	if owner, err := s.codes.Owner(r.Context(), tokenID); err == nil {
		budgetKey = "acct:" + owner.String()
	}
	if !s.allowKey(w, r, s.signinLimit, budgetKey) {
		return
	}

	result, err := s.codes.Verify(r.Context(), tokenID, body.Code)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := verifyCodeResponse{Verified: true, UserID: result.UserID}

	switch result.Kind {
	case otp.KindEmailVerify:
		if err := s.accounts.MarkVerified(r.Context(), result.UserID, auth.ChannelEmail); err != nil {
			s.respondError(w, r, err)
			return
		}
	case otp.KindPhoneVerify:
		if err := s.accounts.MarkVerified(r.Context(), result.UserID, auth.ChannelSMS); err != nil {
			s.respondError(w, r, err)
			return
		}
	default:
		sess, err := s.sessions.Establish(r.Context(), w, r, result.UserID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		resp.SessionToken = sess.Token
		resp.SessionID = &sess.ID
		resp.ExpiresAt = &sess.ExpiresAt
	}

	respondJSON(w, http.StatusOK, resp)
}

type statusResponse struct {
	UserID            uuid.UUID          `json:"user_id"`
	EmailVerified     bool               `json:"email_verified"`
	PhoneVerified     bool               `json:"phone_verified"`
	VerificationState gate.State         `json:"verification_state"`
	GraceDeadline     time.Time          `json:"grace_deadline"`
	ClientKind        session.ClientKind `json:"client_kind"`
	SessionExpiresAt  time.Time          `json:"session_expires_at"`
}

// handleStatus reports the caller's verification and session state. It is the
// data source for the "verification required" interstitial, so it stays
// reachable even after the grace window has lapsed.
func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), r)
	if err != nil {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "not signed in"})
		return
	}

	user, err := s.accounts.GetByID(r.Context(), sess.UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, statusResponse{
		UserID:        user.ID,
		EmailVerified: user.EmailVerifiedAt != nil,
		PhoneVerified: user.PhoneVerifiedAt != nil,
		VerificationState: gate.StateFor(gate.Account{
			Verified:      user.IsVerified(),
			GraceDeadline: user.GraceDeadline,
		}, time.Now()),
		GraceDeadline:    user.GraceDeadline,
		ClientKind:       sess.ClientKind,
		SessionExpiresAt: sess.ExpiresAt,
	})
}

type magicRequestBody struct {
	Email string `json:"email"`
}

// handleMagicRequest emails a sign-in link. Unknown addresses are
// auto-registered, so the response is uniform by construction.
func (s *Service) handleMagicRequest(w http.ResponseWriter, r *http.Request) {
	var body magicRequestBody
	if err := decodeBody(r, &body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}

	canonical, err := contact.NormalizeEmail(body.Email)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if user, err := s.accounts.LookupByContact(r.Context(), canonical); err == nil {
		if !s.accountAllowed(w, r, s.requestLimit, user) {
			return
		}
	}

	link, err := s.accounts.RequestMagicLink(r.Context(), canonical)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	bodyHTML, err := email.MagicLinkBody(s.magicLinkURL(link.Token), time.Until(link.ExpiresAt))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.mailer.SendEmail(r.Context(), email.SendEmailParams{
		SendTo:   link.Email,
		Subject:  "Your sign-in link",
		BodyHTML: bodyHTML,
		Tag:      "magic-link",
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to deliver magic link",
			"email_masked", contact.MaskEmail(link.Email),
			"error", err,
		)
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": sentMessage})
}

// handleMagicVerify consumes a magic link, signs the user in, and either
// redirects (browsers) or answers JSON (API clients).
func (s *Service) handleMagicVerify(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "token is required"})
		return
	}

	user, err := s.accounts.VerifyMagicLink(r.Context(), tok)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sess, err := s.sessions.Establish(r.Context(), w, r, user.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if session.Classify(session.SignalsFromRequest(r)) == session.KindBrowser {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	respondJSON(w, http.StatusOK, verifyCodeResponse{
		Verified:     true,
		UserID:       user.ID,
		SessionToken: sess.Token,
		SessionID:    &sess.ID,
		ExpiresAt:    &sess.ExpiresAt,
	})
}

// handleLogout destroys the current session. Destroying an absent session is
// not an error.
func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(r.Context(), w, r); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

// accountAllowed enforces the per-account budget for the given limiter.
func (s *Service) accountAllowed(w http.ResponseWriter, r *http.Request, limiter *ratelimit.Limiter, user *auth.User) bool {
	return s.allowKey(w, r, limiter, "acct:"+user.ID.String())
}

// allowKey checks one rate limit dimension. Writes the generic 429 (with
// Retry-After) or a 503 on store failure and returns false on denial.
func (s *Service) allowKey(w http.ResponseWriter, r *http.Request, limiter *ratelimit.Limiter, key string) bool {
	if limiter == nil {
		return true
	}

	result, err := limiter.Allow(r.Context(), key)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "rate limit store failure", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, errorBody{Error: "service unavailable"})
		return false
	}
	if !result.Allowed {
		retryAfter := int(math.Ceil(result.RetryAfter().Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		respondJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many requests, try again later"})
		return false
	}
	return true
}
