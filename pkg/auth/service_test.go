package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorbase/authkit/pkg/auth"
	"github.com/tutorbase/authkit/pkg/contact"
)

func newTestService(t *testing.T, now func() time.Time) (*auth.Service, *auth.MemoryStorage) {
	t.Helper()

	storage := auth.NewMemoryStorage()
	opts := []auth.Option{}
	if now != nil {
		opts = append(opts, auth.WithClock(now))
	}
	svc := auth.NewService(storage, auth.Config{
		GracePeriod: 72 * time.Hour,
		PhoneRegion: "US",
		TokenSecret: "test-secret-for-magic-links",
	}, opts...)
	return svc, storage
}

func TestServiceSignUp(t *testing.T) {
	t.Parallel()

	t.Run("normalizes contacts", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, nil)
		user, err := svc.SignUp(context.Background(), "  Alice@Example.COM ", "(415) 555-2671", auth.ChannelSMS)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "+14155552671", user.Phone)
		assert.Equal(t, auth.ChannelSMS, user.PreferredChannel)
	})

	t.Run("grace deadline fixed at signup", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		svc, _ := newTestService(t, func() time.Time { return now })
		user, err := svc.SignUp(context.Background(), "bob@example.com", "", auth.ChannelEmail)
		require.NoError(t, err)
		assert.Equal(t, now.Add(72*time.Hour), user.GraceDeadline)
	})

	t.Run("sms preference without phone falls back to email", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, nil)
		user, err := svc.SignUp(context.Background(), "carol@example.com", "", auth.ChannelSMS)
		require.NoError(t, err)
		assert.Equal(t, auth.ChannelEmail, user.PreferredChannel)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, nil)
		_, err := svc.SignUp(context.Background(), "dave@example.com", "", auth.ChannelEmail)
		require.NoError(t, err)

		_, err = svc.SignUp(context.Background(), "DAVE@example.com", "", auth.ChannelEmail)
		assert.ErrorIs(t, err, auth.ErrEmailTaken)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, nil)
		_, err := svc.SignUp(context.Background(), "not-an-email", "", auth.ChannelEmail)
		assert.ErrorIs(t, err, contact.ErrInvalidFormat)
	})
}

func TestServiceLookupByContact(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	created, err := svc.SignUp(context.Background(), "eve@example.com", "+1 415 555 2671", auth.ChannelEmail)
	require.NoError(t, err)

	t.Run("by email with different formatting", func(t *testing.T) {
		t.Parallel()

		user, err := svc.LookupByContact(context.Background(), "EVE@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("by national phone format", func(t *testing.T) {
		t.Parallel()

		user, err := svc.LookupByContact(context.Background(), "(415) 555-2671")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("unknown contact", func(t *testing.T) {
		t.Parallel()

		_, err := svc.LookupByContact(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("garbage identifier", func(t *testing.T) {
		t.Parallel()

		_, err := svc.LookupByContact(context.Background(), "???")
		assert.ErrorIs(t, err, contact.ErrInvalidFormat)
	})
}

func TestServiceMarkVerified(t *testing.T) {
	t.Parallel()

	svc, storage := newTestService(t, nil)
	user, err := svc.SignUp(context.Background(), "frank@example.com", "+14155552671", auth.ChannelEmail)
	require.NoError(t, err)
	require.False(t, user.IsVerified())

	require.NoError(t, svc.MarkVerified(context.Background(), user.ID, auth.ChannelEmail))

	got, err := storage.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EmailVerifiedAt)
	assert.Nil(t, got.PhoneVerifiedAt)
	assert.True(t, got.IsVerified())

	// A second mark must not move the original timestamp.
	first := *got.EmailVerifiedAt
	require.NoError(t, svc.MarkVerified(context.Background(), user.ID, auth.ChannelEmail))
	got, err = storage.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *got.EmailVerifiedAt)
}

func TestServiceMarkVerifiedUnknownUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	err := svc.MarkVerified(context.Background(), uuid.New(), auth.ChannelEmail)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}
