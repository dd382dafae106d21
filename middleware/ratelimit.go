package middleware

import (
	"net/http"
	"strconv"

	gateAuth "github.com/MrEthical07/gateAuth"
)

// RateLimit rejects requests over their window budget with 429 and a
// Retry-After header in whole seconds. Throttled requests that pass carry
// X-RateLimit-Limit and X-RateLimit-Remaining.
func RateLimit(engine *gateAuth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				next.ServeHTTP(w, r)
				return
			}

			d := engine.CheckRequest(r)
			if d.Throttled {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			}
			if !d.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds())))
				writeError(w, http.StatusTooManyRequests, msgTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
