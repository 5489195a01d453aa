package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/listenupapp/listenup-metadata/internal/http/response"
	"github.com/listenupapp/listenup-metadata/internal/ratelimit"
)

// RateLimiter is the per-client inbound limiter.
type RateLimiter = ratelimit.Limiter

// NewRateLimiter creates a per-client limiter. A non-positive rps disables
// inbound limiting and returns nil.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	return ratelimit.New(rps, max(burst, 1), ratelimit.DefaultIdleTTL)
}

// RateLimitMiddleware refuses requests with 429 once a client address runs
// out of tokens.
func RateLimitMiddleware(limiter *RateLimiter, logger interface{ Warn(msg string, args ...any) }) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(getClientIP(r)) {
				logger.Warn("inbound rate limit exceeded", "path", r.URL.Path)
				response.TooManyRequests(w, "Too many requests, slow down.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the host part of RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
