// Package session manages authenticated sessions whose lifetime depends on
// the client type: installed apps keep long sessions (7 days by default),
// plain browsers short ones (24 hours).
//
// Client classification is a pure function over an explicit set of request
// signals, resolved in a priority cascade: an explicit client header, then a
// previously recorded preference cookie, then a user-agent heuristic as the
// last resort. Classification is client-reported and therefore NOT a security
// boundary — it only decides how often the user is asked to re-authenticate,
// never what they are authorized to do.
//
// Reclassifying an existing session may extend its expiry (a browser session
// upgraded to installed-app gets the longer lifetime) but never shortens it
// below what was already granted.
//
// # Usage
//
//	mgr, err := session.New(
//	    session.WithCookieManager(cookieMgr),
//	    session.WithConfig(cfg),
//	)
//
//	sess, err := mgr.Establish(ctx, w, r, userID) // after successful OTP verify
//	sess, err := mgr.Get(ctx, r)
//	err = mgr.Destroy(ctx, w, r)
package session
