// Package email delivers transactional mail through Postmark, with a
// file-dumping sender for local development.
//
// The package exposes a single Sender interface so callers never depend on
// the Postmark client directly:
//
//	sender, err := email.NewPostmarkSender(cfg)
//	if err != nil {
//		return err
//	}
//
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "user@example.com",
//		Subject:  "Your sign-in code",
//		BodyHTML: body,
//		Tag:      "signin-otp",
//	})
//
// Verification-specific bodies (one-time codes, magic links) are built with
// the template helpers in templates.go.
package email
