package clientip_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tutorbase/authkit/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	t.Run("prefers cloudflare header", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("CF-Connecting-IP", "203.0.113.7")
		r.Header.Set("X-Forwarded-For", "198.51.100.23")
		assert.Equal(t, "203.0.113.7", clientip.GetIP(r))
	})

	t.Run("first valid forwarded entry wins", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Forwarded-For", "not-an-ip, 198.51.100.23, 10.0.0.1")
		assert.Equal(t, "198.51.100.23", clientip.GetIP(r))
	})

	t.Run("falls back to real ip then remote addr", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Real-IP", "198.51.100.23")
		assert.Equal(t, "198.51.100.23", clientip.GetIP(r))

		r = httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.7:4912"
		assert.Equal(t, "203.0.113.7", clientip.GetIP(r))
	})

	t.Run("invalid header values are ignored", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.7:4912"
		r.Header.Set("CF-Connecting-IP", "spoofed\x00junk")
		assert.Equal(t, "203.0.113.7", clientip.GetIP(r))
	})

	t.Run("normalizes ipv6", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "[2001:db8::1]:4912"
		assert.Equal(t, "2001:db8::1", clientip.GetIP(r))
	})
}
