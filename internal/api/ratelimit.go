package api

import (
	"net/http"
	"strings"

	"github.com/lilizblack/bookeareads-server/internal/http/response"
)

// Auth endpoints get throttled per client IP so password guessing stays
// painfully slow. 20 requests per minute with a small burst.
const (
	authRequestsPerSecond = 20.0 / 60.0
	authBurst             = 5
)

// authRateLimit limits requests to the auth endpoints by client IP.
// Returns 429 Too Many Requests when the limit is exceeded.
func (s *Server) authRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v1/auth/") {
			next.ServeHTTP(w, r)
			return
		}

		key := getClientIP(r)
		if !s.authLimiter.Allow(key) {
			s.logger.Warn("Rate limit exceeded", "ip", key, "path", r.URL.Path)
			response.TooManyRequests(w, "Too many requests. Please try again later.", s.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First IP in the chain is the client.
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Strip the port from RemoteAddr.
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}
