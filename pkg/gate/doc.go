// Package gate enforces contact verification on authenticated requests.
//
// Each account moves through a small state machine:
//
//	UnverifiedInGrace --(email or phone verified)--> Verified   (terminal)
//	UnverifiedInGrace --(grace deadline passes)----> UnverifiedExpired
//	UnverifiedExpired --(email or phone verified)--> Verified   (terminal)
//
// While in grace the account has full access: a new user can explore the
// product immediately after signup, and verification is only enforced before
// sustained use. Once the deadline passes every request is blocked except a
// small allow-list (sign-in, sign-up, verification endpoints, logout) until
// the account verifies a contact method. Accounts that never verify stay
// gated indefinitely; nothing is deleted automatically.
//
// The grace deadline is set once at account creation and never re-extended.
package gate
