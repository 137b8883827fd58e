package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrInvalidParams = errors.New("sms.invalid_params")

// Sender sends a single SMS message to an E.164 phone number.
type Sender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// CodeMessage builds the text for a one-time code SMS.
func CodeMessage(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(ttl.Minutes()))
}

// DevSender logs messages instead of sending them.
type DevSender struct {
	logger *slog.Logger
}

// NewDevSender creates a development sender that logs outbound messages.
func NewDevSender(logger *slog.Logger) *DevSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &DevSender{logger: logger}
}

func (d *DevSender) SendSMS(ctx context.Context, to, body string) error {
	if to == "" || body == "" {
		return fmt.Errorf("%w: recipient and body are required", ErrInvalidParams)
	}
	d.logger.InfoContext(ctx, "sms message",
		slog.String("to", to),
		slog.String("body", body),
	)
	return nil
}
