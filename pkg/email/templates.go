package email

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

var codeTmpl = template.Must(template.New("code").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1a1a1a;">
  <h2>{{.Title}}</h2>
  <p>Use this code to continue. It expires in {{.TTL}}.</p>
  <p style="font-size: 32px; letter-spacing: 8px; font-weight: bold;">{{.Code}}</p>
  <p style="color: #666;">If you didn't request this, you can ignore this email.</p>
</body>
</html>`))

var magicLinkTmpl = template.Must(template.New("magic").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1a1a1a;">
  <h2>Sign in to your account</h2>
  <p>Click the link below to sign in. It expires in {{.TTL}}.</p>
  <p><a href="{{.URL}}" style="font-size: 18px;">Sign in</a></p>
  <p style="color: #666;">If you didn't request this, you can ignore this email.</p>
</body>
</html>`))

// CodeBody renders the HTML body for a one-time code email.
func CodeBody(title, code string, ttl time.Duration) (string, error) {
	var sb strings.Builder
	err := codeTmpl.Execute(&sb, struct {
		Title string
		Code  string
		TTL   string
	}{Title: title, Code: code, TTL: humanDuration(ttl)})
	if err != nil {
		return "", fmt.Errorf("failed to render code email: %w", err)
	}
	return sb.String(), nil
}

// MagicLinkBody renders the HTML body for a magic link email.
func MagicLinkBody(url string, ttl time.Duration) (string, error) {
	var sb strings.Builder
	err := magicLinkTmpl.Execute(&sb, struct {
		URL string
		TTL string
	}{URL: url, TTL: humanDuration(ttl)})
	if err != nil {
		return "", fmt.Errorf("failed to render magic link email: %w", err)
	}
	return sb.String(), nil
}

func humanDuration(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	return fmt.Sprintf("%d hours", int(d.Hours()))
}
