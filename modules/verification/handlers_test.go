package verification_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorbase/authkit/modules/verification"
	"github.com/tutorbase/authkit/pkg/auth"
	"github.com/tutorbase/authkit/pkg/cookie"
	"github.com/tutorbase/authkit/pkg/email"
	"github.com/tutorbase/authkit/pkg/otp"
	"github.com/tutorbase/authkit/pkg/ratelimit"
	"github.com/tutorbase/authkit/pkg/session"
)

var codePattern = regexp.MustCompile(`>(\d{6})<`)

type captureMailer struct {
	mu   sync.Mutex
	sent []email.SendEmailParams
}

func (c *captureMailer) SendEmail(_ context.Context, params email.SendEmailParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, params)
	return nil
}

func (c *captureMailer) last(t *testing.T) email.SendEmailParams {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatal("no email was sent")
	}
	return c.sent[len(c.sent)-1]
}

func (c *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	match := codePattern.FindStringSubmatch(c.last(t).BodyHTML)
	if match == nil {
		t.Fatal("no code found in email body")
	}
	return match[1]
}

type captureTexter struct {
	mu   sync.Mutex
	sent []string
}

func (c *captureTexter) SendSMS(_ context.Context, _, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, body)
	return nil
}

type fixture struct {
	svc      *verification.Service
	router   http.Handler
	accounts *auth.Service
	users    *auth.MemoryStorage
	mailer   *captureMailer
	texter   *captureTexter
}

func newFixture(t *testing.T, opts ...verification.Option) *fixture {
	t.Helper()

	users := auth.NewMemoryStorage()
	accounts := auth.NewService(users, auth.Config{
		PhoneRegion: "US",
		TokenSecret: "magic-link-signing-secret-for-tests",
	})

	tokenStore := otp.NewMemoryStore(0)
	t.Cleanup(tokenStore.Close)
	codes, err := otp.NewService(tokenStore, otp.Config{BcryptCost: 4})
	require.NoError(t, err)

	cookies, err := cookie.New([]string{"0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)
	sessions := session.New(session.WithCookieManager(cookies))

	mailer := &captureMailer{}
	texter := &captureTexter{}

	svc := verification.NewService(
		verification.Config{BaseURL: "http://app.test"},
		accounts, codes, sessions, mailer, texter,
		opts...,
	)

	return &fixture{
		svc:      svc,
		router:   svc.Router(),
		accounts: accounts,
		users:    users,
		mailer:   mailer,
		texter:   texter,
	}
}

func (f *fixture) postJSON(t *testing.T, path string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.10:40000"
	for _, m := range mutate {
		m(req)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

type codeResponse struct {
	Message   string    `json:"message"`
	TokenID   uuid.UUID `json:"token_id"`
	ExpiresIn int       `json:"expires_in"`
}

type verifyResponse struct {
	Verified     bool       `json:"verified"`
	UserID       uuid.UUID  `json:"user_id"`
	SessionToken string     `json:"session_token"`
	ExpiresAt    *time.Time `json:"session_expires_at"`
}

func TestSignupAndEmailVerification(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.postJSON(t, "/signup", map[string]string{
		"email": "Student@Example.com",
		"phone": "(415) 555-2671",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeResponse[struct {
		UserID        uuid.UUID `json:"user_id"`
		TokenID       uuid.UUID `json:"token_id"`
		GraceDeadline time.Time `json:"grace_deadline"`
	}](t, rec)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), created.GraceDeadline, time.Minute)

	// Verification code was delivered over email.
	code := f.mailer.lastCode(t)

	rec = f.postJSON(t, "/otp/verify", map[string]string{
		"token_id": created.TokenID.String(),
		"code":     code,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	user, err := f.users.GetByID(context.Background(), created.UserID)
	require.NoError(t, err)
	assert.NotNil(t, user.EmailVerifiedAt)
	assert.True(t, user.IsVerified())

	t.Run("duplicate email rejected", func(t *testing.T) {
		rec := f.postJSON(t, "/signup", map[string]string{"email": "student@example.com"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestSigninOTPFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.accounts.SignUp(context.Background(), "learner@example.com", "", auth.ChannelEmail)
	require.NoError(t, err)

	rec := f.postJSON(t, "/otp/request", map[string]string{"identifier": "learner@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	issued := decodeResponse[codeResponse](t, rec)

	t.Run("wrong code reports remaining attempts", func(t *testing.T) {
		rec := f.postJSON(t, "/otp/verify", map[string]string{
			"token_id": issued.TokenID.String(),
			"code":     "000000",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeResponse[map[string]any](t, rec)
		assert.Equal(t, float64(4), body["remaining_attempts"])
	})

	t.Run("correct code establishes browser session", func(t *testing.T) {
		rec := f.postJSON(t, "/otp/verify", map[string]string{
			"token_id": issued.TokenID.String(),
			"code":     f.mailer.lastCode(t),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decodeResponse[verifyResponse](t, rec)
		assert.True(t, resp.Verified)
		assert.NotEmpty(t, resp.SessionToken)
		require.NotNil(t, resp.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), *resp.ExpiresAt, time.Minute)
		assert.NotEmpty(t, rec.Result().Cookies())
	})
}

func TestSigninOTPInstalledAppDuration(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.accounts.SignUp(context.Background(), "mobile@example.com", "", auth.ChannelEmail)
	require.NoError(t, err)

	rec := f.postJSON(t, "/otp/request", map[string]string{"identifier": "mobile@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	issued := decodeResponse[codeResponse](t, rec)

	rec = f.postJSON(t, "/otp/verify", map[string]string{
		"token_id": issued.TokenID.String(),
		"code":     f.mailer.lastCode(t),
	}, func(r *http.Request) {
		r.Header.Set(session.ClientHeader, "app")
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeResponse[verifyResponse](t, rec)
	require.NotNil(t, resp.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), *resp.ExpiresAt, time.Minute)
}

func TestFiveWrongCodesThenCorrectRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.accounts.SignUp(context.Background(), "persistent@example.com", "", auth.ChannelEmail)
	require.NoError(t, err)

	rec := f.postJSON(t, "/otp/request", map[string]string{"identifier": "persistent@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	issued := decodeResponse[codeResponse](t, rec)
	correct := f.mailer.lastCode(t)

	for range 5 {
		f.postJSON(t, "/otp/verify", map[string]string{
			"token_id": issued.TokenID.String(),
			"code":     "000000",
		})
	}

	rec = f.postJSON(t, "/otp/verify", map[string]string{
		"token_id": issued.TokenID.String(),
		"code":     correct,
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestSigninBudgetFollowsAccountAcrossTokens(t *testing.T) {
	t.Parallel()

	requestLimiter, err := ratelimit.New(ratelimit.NewMemoryStore(0), ratelimit.Policy{Limit: 10, Window: 5 * time.Minute})
	require.NoError(t, err)
	signinLimiter, err := ratelimit.New(ratelimit.NewMemoryStore(0), ratelimit.Policy{Limit: 3, Window: 15 * time.Minute})
	require.NoError(t, err)

	f := newFixture(t, verification.WithRateLimiters(requestLimiter, signinLimiter))
	_, err = f.accounts.SignUp(context.Background(), "rotator@example.com", "", auth.ChannelEmail)
	require.NoError(t, err)

	// Each attempt arrives from a different address so only the account
	// dimension accumulates.
	addrs := []string{"203.0.113.1:40000", "203.0.113.2:40000", "203.0.113.3:40000", "203.0.113.4:40000"}
	fromAddr := func(i int) func(*http.Request) {
		return func(r *http.Request) { r.RemoteAddr = addrs[i] }
	}

	rec := f.postJSON(t, "/otp/request", map[string]string{"identifier": "rotator@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeResponse[codeResponse](t, rec)

	for i := range 2 {
		rec = f.postJSON(t, "/otp/verify", map[string]string{
			"token_id": first.TokenID.String(),
			"code":     "000000",
		}, fromAddr(i))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	// Rotating to a fresh token does not reset the attempt budget; it follows
	// the account.
	rec = f.postJSON(t, "/otp/resend", map[string]string{"identifier": "rotator@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeResponse[codeResponse](t, rec)
	require.NotEqual(t, first.TokenID, second.TokenID)

	rec = f.postJSON(t, "/otp/verify", map[string]string{
		"token_id": second.TokenID.String(),
		"code":     "000000",
	}, fromAddr(2))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.postJSON(t, "/otp/verify", map[string]string{
		"token_id": second.TokenID.String(),
		"code":     f.mailer.lastCode(t),
	}, fromAddr(3))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRequestCodeUnknownContactIsUniform(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.postJSON(t, "/otp/request", map[string]string{"identifier": "ghost@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse[codeResponse](t, rec)
	assert.NotEqual(t, uuid.Nil, resp.TokenID)
	assert.NotZero(t, resp.ExpiresIn)

	// The decoy reference never verifies.
	rec = f.postJSON(t, "/otp/verify", map[string]string{
		"token_id": resp.TokenID.String(),
		"code":     "123456",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResendInvalidatesPriorCode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.accounts.SignUp(context.Background(), "resend@example.com", "", auth.ChannelEmail)
	require.NoError(t, err)

	rec := f.postJSON(t, "/otp/request", map[string]string{"identifier": "resend@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeResponse[codeResponse](t, rec)
	firstCode := f.mailer.lastCode(t)

	rec = f.postJSON(t, "/otp/resend", map[string]string{"identifier": "resend@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeResponse[codeResponse](t, rec)
	require.NotEqual(t, first.TokenID, second.TokenID)

	rec = f.postJSON(t, "/otp/verify", map[string]string{
		"token_id": first.TokenID.String(),
		"code":     firstCode,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.postJSON(t, "/otp/verify", map[string]string{
		"token_id": second.TokenID.String(),
		"code":     f.mailer.lastCode(t),
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestMagicLinkFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.postJSON(t, "/magic/request", map[string]string{"email": "linker@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Extract the link target from the delivered email.
	href := regexp.MustCompile(`href="([^"]+)"`).FindStringSubmatch(f.mailer.last(t).BodyHTML)
	require.NotNil(t, href)
	link, err := url.Parse(href[1])
	require.NoError(t, err)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/magic/verify?token="+url.QueryEscape(token), nil)
	req.Header.Set("Accept", "text/html")
	req.RemoteAddr = "203.0.113.10:40000"
	verifyRec := httptest.NewRecorder()
	f.router.ServeHTTP(verifyRec, req)

	assert.Equal(t, http.StatusSeeOther, verifyRec.Code, verifyRec.Body.String())
	assert.NotEmpty(t, verifyRec.Result().Cookies())

	user, err := f.accounts.LookupByContact(context.Background(), "linker@example.com")
	require.NoError(t, err)
	assert.NotNil(t, user.EmailVerifiedAt)

	t.Run("token is single-context but replay within ttl is harmless", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/magic/verify?token="+url.QueryEscape(token), nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("tampered token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/magic/verify?token="+url.QueryEscape(token+"x"), nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatusAndLogout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.accounts.SignUp(context.Background(), "status@example.com", "", auth.ChannelEmail)
	require.NoError(t, err)

	rec := f.postJSON(t, "/otp/request", map[string]string{"identifier": "status@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	issued := decodeResponse[codeResponse](t, rec)

	rec = f.postJSON(t, "/otp/verify", map[string]string{
		"token_id": issued.TokenID.String(),
		"code":     f.mailer.lastCode(t),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	signin := decodeResponse[verifyResponse](t, rec)

	authorize := func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+signin.SessionToken)
	}

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	authorize(req)
	statusRec := httptest.NewRecorder()
	f.router.ServeHTTP(statusRec, req)
	require.Equal(t, http.StatusOK, statusRec.Code, statusRec.Body.String())

	status := decodeResponse[map[string]any](t, statusRec)
	assert.Equal(t, "unverified_in_grace", status["verification_state"])
	assert.Equal(t, false, status["email_verified"])

	rec = f.postJSON(t, "/logout", map[string]string{}, authorize)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	authorize(req)
	statusRec = httptest.NewRecorder()
	f.router.ServeHTTP(statusRec, req)
	assert.Equal(t, http.StatusUnauthorized, statusRec.Code)
}

func TestStatusWithoutSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestBudgetEnforced(t *testing.T) {
	t.Parallel()

	requestLimiter, err := ratelimit.New(ratelimit.NewMemoryStore(0), ratelimit.Policy{Limit: 3, Window: 5 * time.Minute})
	require.NoError(t, err)
	signinLimiter, err := ratelimit.New(ratelimit.NewMemoryStore(0), ratelimit.Policy{Limit: 5, Window: 15 * time.Minute})
	require.NoError(t, err)

	f := newFixture(t, verification.WithRateLimiters(requestLimiter, signinLimiter))
	_, err = f.accounts.SignUp(context.Background(), "heavy@example.com", "", auth.ChannelEmail)
	require.NoError(t, err)

	for i := range 3 {
		rec := f.postJSON(t, "/otp/request", map[string]string{"identifier": "heavy@example.com"})
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := f.postJSON(t, "/otp/request", map[string]string{"identifier": "heavy@example.com"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
