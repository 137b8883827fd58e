package otp_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tutorbase/authkit/pkg/otp"
)

func newService(t *testing.T, opts ...otp.Option) (*otp.Service, *otp.MemoryStore) {
	t.Helper()

	store := otp.NewMemoryStore(0)
	t.Cleanup(store.Close)

	svc, err := otp.NewService(store, otp.Config{BcryptCost: bcrypt.MinCost}, opts...)
	require.NoError(t, err)

	return svc, store
}

func TestService_Issue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns six digit code with expiry", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService(t)
		issued, err := svc.Issue(ctx, uuid.New(), otp.KindSigninOTP)
		require.NoError(t, err)

		assert.Len(t, issued.Code, 6)
		assert.NotEqual(t, uuid.Nil, issued.TokenID)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), issued.ExpiresAt, time.Minute)
	})

	t.Run("invalidates prior active token of same kind", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService(t)
		userID := uuid.New()

		first, err := svc.Issue(ctx, userID, otp.KindSigninOTP)
		require.NoError(t, err)

		second, err := svc.Issue(ctx, userID, otp.KindSigninOTP)
		require.NoError(t, err)

		// The first code is no longer usable even if correct.
		_, err = svc.Verify(ctx, first.TokenID, first.Code)
		assert.ErrorIs(t, err, otp.ErrTokenNotFound)

		res, err := svc.Verify(ctx, second.TokenID, second.Code)
		require.NoError(t, err)
		assert.Equal(t, userID, res.UserID)
	})

	t.Run("different kinds do not invalidate each other", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService(t)
		userID := uuid.New()

		signin, err := svc.Issue(ctx, userID, otp.KindSigninOTP)
		require.NoError(t, err)

		_, err = svc.Issue(ctx, userID, otp.KindEmailVerify)
		require.NoError(t, err)

		_, err = svc.Verify(ctx, signin.TokenID, signin.Code)
		assert.NoError(t, err)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService(t)
		_, err := svc.Issue(ctx, uuid.New(), otp.Kind("bogus"))
		assert.Error(t, err)
	})
}

func TestService_Verify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("succeeds with correct code and consumes token", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService(t)
		userID := uuid.New()

		issued, err := svc.Issue(ctx, userID, otp.KindSigninOTP)
		require.NoError(t, err)

		res, err := svc.Verify(ctx, issued.TokenID, issued.Code)
		require.NoError(t, err)
		assert.Equal(t, userID, res.UserID)
		assert.Equal(t, otp.KindSigninOTP, res.Kind)

		// Single use: second verification fails.
		_, err = svc.Verify(ctx, issued.TokenID, issued.Code)
		assert.ErrorIs(t, err, otp.ErrTokenNotFound)
	})

	t.Run("reports remaining attempts on mismatch", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService(t)
		issued, err := svc.Issue(ctx, uuid.New(), otp.KindSigninOTP)
		require.NoError(t, err)

		_, err = svc.Verify(ctx, issued.TokenID, wrongCode(issued.Code))
		require.ErrorIs(t, err, otp.ErrCodeMismatch)

		var mismatch *otp.CodeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 4, mismatch.Remaining)
	})

	t.Run("locks out after max attempts even with correct code", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService(t)
		issued, err := svc.Issue(ctx, uuid.New(), otp.KindSigninOTP)
		require.NoError(t, err)

		for range 5 {
			_, err = svc.Verify(ctx, issued.TokenID, wrongCode(issued.Code))
			require.Error(t, err)
		}

		_, err = svc.Verify(ctx, issued.TokenID, issued.Code)
		assert.ErrorIs(t, err, otp.ErrTooManyAttempts)
	})

	t.Run("rejects expired token with correct code", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		clock := now
		var mu sync.Mutex

		svc, _ := newService(t, otp.WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return clock
		}))

		issued, err := svc.Issue(ctx, uuid.New(), otp.KindSigninOTP)
		require.NoError(t, err)

		mu.Lock()
		clock = now.Add(11 * time.Minute)
		mu.Unlock()

		_, err = svc.Verify(ctx, issued.TokenID, issued.Code)
		assert.ErrorIs(t, err, otp.ErrTokenExpired)
	})

	t.Run("unknown token id", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService(t)
		_, err := svc.Verify(ctx, uuid.New(), "123456")
		assert.ErrorIs(t, err, otp.ErrTokenNotFound)
	})
}

func TestService_AttemptRecorder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	type capture struct {
		mu       sync.Mutex
		attempts []otp.Attempt
	}

	record := func(c *capture) otp.Option {
		return otp.WithAttemptRecorder(func(_ context.Context, a otp.Attempt) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.attempts = append(c.attempts, a)
		})
	}

	t.Run("records failure and success", func(t *testing.T) {
		t.Parallel()

		var c capture
		svc, _ := newService(t, record(&c))

		issued, err := svc.Issue(ctx, uuid.New(), otp.KindSigninOTP)
		require.NoError(t, err)

		_, err = svc.Verify(ctx, issued.TokenID, wrongCode(issued.Code))
		require.Error(t, err)

		_, err = svc.Verify(ctx, issued.TokenID, issued.Code)
		require.NoError(t, err)

		c.mu.Lock()
		defer c.mu.Unlock()
		require.Len(t, c.attempts, 2)
		assert.False(t, c.attempts[0].Success)
		assert.True(t, c.attempts[1].Success)
	})

	t.Run("records attempts against consumed tokens", func(t *testing.T) {
		t.Parallel()

		var c capture
		svc, _ := newService(t, record(&c))

		issued, err := svc.Issue(ctx, uuid.New(), otp.KindSigninOTP)
		require.NoError(t, err)

		_, err = svc.Verify(ctx, issued.TokenID, issued.Code)
		require.NoError(t, err)

		_, err = svc.Verify(ctx, issued.TokenID, issued.Code)
		require.ErrorIs(t, err, otp.ErrTokenNotFound)

		c.mu.Lock()
		defer c.mu.Unlock()
		require.Len(t, c.attempts, 2)
		assert.True(t, c.attempts[0].Success)
		assert.False(t, c.attempts[1].Success)
	})

	t.Run("records attempts against expired tokens", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		clock := now
		var clockMu sync.Mutex

		var c capture
		svc, _ := newService(t, record(&c), otp.WithClock(func() time.Time {
			clockMu.Lock()
			defer clockMu.Unlock()
			return clock
		}))

		issued, err := svc.Issue(ctx, uuid.New(), otp.KindSigninOTP)
		require.NoError(t, err)

		clockMu.Lock()
		clock = now.Add(11 * time.Minute)
		clockMu.Unlock()

		_, err = svc.Verify(ctx, issued.TokenID, issued.Code)
		require.ErrorIs(t, err, otp.ErrTokenExpired)

		c.mu.Lock()
		defer c.mu.Unlock()
		require.Len(t, c.attempts, 1)
		assert.False(t, c.attempts[0].Success)
		assert.Equal(t, issued.TokenID, c.attempts[0].TokenID)
	})
}

func TestService_Cleanup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := otp.NewMemoryStore(0)
	t.Cleanup(store.Close)

	svc, err := otp.NewService(store, otp.Config{
		BcryptCost: bcrypt.MinCost,
		CodeTTL:    time.Nanosecond,
		Retention:  time.Nanosecond,
	})
	require.NoError(t, err)

	_, err = svc.Issue(ctx, uuid.New(), otp.KindSigninOTP)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	removed, err := svc.Cleanup(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}

// wrongCode returns a valid-looking code guaranteed to differ from the given one.
func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}
