// Package auth manages user accounts for passwordless authentication: signup
// with normalized contact identifiers, magic-link email verification, and the
// irreversible verified-contact flags the enforcement gate reads.
//
// A user is "verified" once either contact method is confirmed. Verification
// flags flip to true exactly once; there is no path back. The grace deadline
// is assigned at signup (creation time plus a fixed window) and never
// re-extended.
package auth
