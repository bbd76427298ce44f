package middleware

import (
	"net/http"
	"time"

	"go.uber.org/ratelimit"
)

// RateLimit paces requests to at most perMinute a minute across all
// callers. Requests wait for their turn; capacity left unused while idle
// carries over as slack.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	limiter := ratelimit.New(perMinute, ratelimit.Per(time.Minute), ratelimit.WithSlack(perMinute))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter.Take()
			if r.Context().Err() != nil {
				// The client gave up while waiting.
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
