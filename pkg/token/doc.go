// Package token provides compact, HMAC-signed tokens embedding JSON payloads.
//
// Tokens are used for magic links and other single-purpose references sent to
// the user out of band. The signature is HMAC-SHA256 truncated to 16 bytes,
// which is sufficient for short-lived application tokens; expiry must be
// carried inside the payload and checked by the caller after parsing.
//
// Token format: base64url(payload).base64url(signature)
//
// # Usage
//
//	type payload struct {
//	    Email string `json:"email"`
//	    Exp   int64  `json:"exp"`
//	}
//
//	tok, err := token.Generate(payload{email, time.Now().Add(15 * time.Minute).Unix()}, secret)
//	p, err := token.Parse[payload](tok, secret)
//
// Parse returns ErrInvalidToken for malformed input and ErrSignatureInvalid
// on signature mismatch; comparison is constant-time.
package token
