// Package otp issues and verifies short-lived one-time codes for passwordless
// sign-in and contact verification.
//
// Codes are 6-digit, generated from crypto/rand and persisted only as bcrypt
// hashes together with an expiry and an attempt counter. At most one active
// token exists per (user, kind) pair: issuing a new code atomically
// invalidates any prior unconsumed one, so two outstanding codes can never be
// valid simultaneously.
//
// Verification is fail-fast: consumed/expired lookups and exhausted attempt
// counters are rejected before any hash comparison work happens, which keeps
// lockout enforcement ahead of the timing-sensitive path.
//
// # Usage
//
//	svc, err := otp.NewService(otp.NewMemoryStore(time.Minute), otp.Config{})
//	issued, err := svc.Issue(ctx, userID, otp.KindSigninOTP)
//	// deliver issued.Code out of band, hand issued.TokenID to the client
//
//	res, err := svc.Verify(ctx, issued.TokenID, submittedCode)
//
// Every verification attempt, successful or not, is reported to the optional
// AttemptRecorder for audit and rate-limiting purposes.
package otp
