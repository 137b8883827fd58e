package ratelimit

import (
	"net/http"

	"github.com/tutorbase/authkit/pkg/clientip"
)

// KeyFunc derives a rate limit key from a request. An empty result means the
// dimension is unknown for this request and is skipped.
type KeyFunc func(*http.Request) string

// ByClientIP keys on the originating client address, resolved through proxy
// headers.
func ByClientIP() KeyFunc {
	return func(r *http.Request) string {
		if ip := clientip.GetIP(r); ip != "" {
			return "ip:" + ip
		}
		return ""
	}
}

// ByAccount keys on an account identity extracted by the caller, typically
// the normalized contact identifier or user ID from the request body or
// session. Returns "" for anonymous requests.
func ByAccount(extract func(*http.Request) string) KeyFunc {
	return func(r *http.Request) string {
		if id := extract(r); id != "" {
			return "acct:" + id
		}
		return ""
	}
}
