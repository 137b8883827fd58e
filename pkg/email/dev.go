package email

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DevSender writes emails to disk instead of sending them, so one-time codes
// and magic links are readable during local development.
type DevSender struct {
	dir    string
	logger *slog.Logger
}

// NewDevSender creates a development sender writing HTML files into dir.
func NewDevSender(dir string, logger *slog.Logger) *DevSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &DevSender{dir: dir, logger: logger}
}

func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSendEmail, err)
	}

	name := fmt.Sprintf("%s_%s.html",
		time.Now().Format("2006_01_02_150405"),
		sanitizeFilename(params.Tag+"_"+params.SendTo),
	)
	path := filepath.Join(d.dir, name)

	if err := os.WriteFile(path, []byte(params.BodyHTML), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSendEmail, err)
	}

	d.logger.InfoContext(ctx, "email written to disk",
		slog.String("to", params.SendTo),
		slog.String("subject", params.Subject),
		slog.String("path", path),
	)
	return nil
}

func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
