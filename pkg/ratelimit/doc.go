// Package ratelimit provides windowed attempt limiting with escalating
// lockouts for authentication endpoints.
//
// A Limiter admits up to Policy.Limit attempts per Policy.Window for each
// key. Exceeding the limit is a violation: the key is locked out, and repeated
// violations within the escalation window extend the lockout progressively
// (30m, 1h, 2h by default) instead of resetting to the base window.
//
// Counters are plain atomic increment-with-expiry operations, so any backend
// offering INCR/EXPIRE semantics works; eventual convergence within the
// window is acceptable. Memory and Redis stores are included.
//
// Keys are derived from the client network address and, when known, the
// account identity. The middleware checks each dimension independently so an
// attacker cannot bypass the limit by rotating only one of them.
//
// # Usage
//
//	limiter, err := ratelimit.New(store, ratelimit.Policy{Limit: 5, Window: 15 * time.Minute})
//
//	mux.Handle("/otp/verify", ratelimit.Middleware(limiter,
//	    ratelimit.ByClientIP(),
//	    ratelimit.ByAccount(accountFromRequest),
//	)(verifyHandler))
//
// Denials are surfaced with a Retry-After header and a generic message that
// does not reveal whether the targeted account exists.
package ratelimit
