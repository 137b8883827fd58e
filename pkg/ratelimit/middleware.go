package ratelimit

import (
	"math"
	"net/http"
	"strconv"
)

// Middleware enforces the limiter across every key dimension produced by the
// given KeyFuncs. Each dimension is checked independently, so rotating client
// addresses does not reset the per-account budget and vice versa.
//
// Denials answer 429 with a Retry-After header and a deliberately generic
// body: the response must not reveal whether the targeted account exists.
func Middleware(limiter *Limiter, keys ...KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, keyFn := range keys {
				key := keyFn(r)
				if key == "" {
					continue
				}

				result, err := limiter.Allow(r.Context(), key)
				if err != nil {
					// A broken counter store must not take authentication
					// down with it; log-and-allow is handled by the caller's
					// store wrapper, here we fail the request safely.
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}

				if !result.Allowed {
					writeRateLimited(w, result)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter, result *Result) {
	retryAfter := int(math.Ceil(result.RetryAfter().Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"too many requests, try again later"}`))
}
