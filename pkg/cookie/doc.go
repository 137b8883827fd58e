// Package cookie manages HTTP cookies with HMAC-signed values.
//
// Signing binds the value to the cookie name, so a signed value cannot be
// replayed under a different cookie. Multiple secrets are supported for
// rotation: the first secret signs, all secrets verify.
//
// # Usage
//
//	mgr, err := cookie.New([]string{"at-least-32-characters-long-secret"})
//	err = mgr.SetSigned(w, "sid", tokenValue, cookie.WithMaxAge(86400))
//	value, err := mgr.GetSigned(r, "sid")
//
// Defaults are Path=/, HttpOnly, SameSite=Lax; override per call or at
// construction with options.
package cookie
