// Package verification is the HTTP surface for passwordless sign-in and
// contact verification: one-time codes over email or SMS, magic links, and
// session issuance with client-classified lifetimes.
//
// Code-request endpoints answer uniformly whether or not the contact matches
// an account, so responses cannot be used to probe for registered emails or
// phone numbers.
package verification
