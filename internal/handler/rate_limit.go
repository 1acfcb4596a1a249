package handler

import (
	"net"
	"net/http"
	"time"

	"github.com/suar-net/suar-reactive/internal/platform/ratelimiter"
)

// RateLimit rejects clients that exceed the limiter's budget, keyed by remote IP.
func RateLimit(l *ratelimiter.MapLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if !l.Allow(host, time.Now()) {
				w.Header().Set("Retry-After", "1")
				respondWithError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
