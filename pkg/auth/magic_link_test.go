package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorbase/authkit/pkg/auth"
)

func TestRequestMagicLink(t *testing.T) {
	t.Parallel()

	t.Run("existing user", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, nil)
		_, err := svc.SignUp(context.Background(), "kate@example.com", "", auth.ChannelEmail)
		require.NoError(t, err)

		req, err := svc.RequestMagicLink(context.Background(), "KATE@example.com")
		require.NoError(t, err)
		assert.Equal(t, "kate@example.com", req.Email)
		assert.NotEmpty(t, req.Token)
		assert.True(t, req.ExpiresAt.After(time.Now()))
	})

	t.Run("unknown email auto-registers", func(t *testing.T) {
		t.Parallel()

		svc, storage := newTestService(t, nil)
		req, err := svc.RequestMagicLink(context.Background(), "newcomer@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, req.Token)

		user, err := storage.GetByEmail(context.Background(), "newcomer@example.com")
		require.NoError(t, err)
		assert.False(t, user.IsVerified())
	})

	t.Run("invalid email", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, nil)
		_, err := svc.RequestMagicLink(context.Background(), "not-an-email")
		assert.Error(t, err)
	})
}

func TestVerifyMagicLink(t *testing.T) {
	t.Parallel()

	t.Run("valid link verifies email", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, nil)
		req, err := svc.RequestMagicLink(context.Background(), "liam@example.com")
		require.NoError(t, err)

		user, err := svc.VerifyMagicLink(context.Background(), req.Token)
		require.NoError(t, err)
		assert.Equal(t, "liam@example.com", user.Email)
		require.NotNil(t, user.EmailVerifiedAt)
		assert.True(t, user.IsVerified())
	})

	t.Run("tampered token", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, nil)
		req, err := svc.RequestMagicLink(context.Background(), "mia@example.com")
		require.NoError(t, err)

		_, err = svc.VerifyMagicLink(context.Background(), req.Token+"x")
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		clock := &now
		svc, _ := newTestService(t, func() time.Time { return *clock })

		req, err := svc.RequestMagicLink(context.Background(), "noah@example.com")
		require.NoError(t, err)

		later := now.Add(16 * time.Minute)
		*clock = later

		_, err = svc.VerifyMagicLink(context.Background(), req.Token)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("already verified is a no-op", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, nil)
		req, err := svc.RequestMagicLink(context.Background(), "olga@example.com")
		require.NoError(t, err)

		first, err := svc.VerifyMagicLink(context.Background(), req.Token)
		require.NoError(t, err)

		second, err := svc.VerifyMagicLink(context.Background(), req.Token)
		require.NoError(t, err)
		assert.Equal(t, *first.EmailVerifiedAt, *second.EmailVerifiedAt)
	})
}
