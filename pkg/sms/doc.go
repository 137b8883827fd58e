// Package sms defines the outbound SMS interface used for one-time codes.
//
// Only a development sender ships here; production deployments plug in a
// provider adapter behind the same Sender interface.
package sms
