package sms_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorbase/authkit/pkg/sms"
)

func TestCodeMessage(t *testing.T) {
	t.Parallel()

	msg := sms.CodeMessage("123456", 10*time.Minute)
	assert.Contains(t, msg, "123456")
	assert.Contains(t, msg, "10 minutes")
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	sender := sms.NewDevSender(slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, sender.SendSMS(context.Background(), "+14155552671", "Your verification code is 123456."))

	err := sender.SendSMS(context.Background(), "", "body")
	assert.ErrorIs(t, err, sms.ErrInvalidParams)
}
