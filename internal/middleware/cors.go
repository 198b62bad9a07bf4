package middleware

import (
	"net/http"
	"strings"
)

// CORSMiddleware echoes the request origin when it is in allowedOrigins.
// With an empty list only localhost origins are accepted.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if OriginAllowed(origin, allowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// OriginAllowed reports whether origin may talk to the server.
func OriginAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}
	if len(allowed) == 0 {
		return strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "https://localhost:")
	}
	for _, a := range allowed {
		if a == "*" || strings.TrimSpace(a) == origin {
			return true
		}
	}
	return false
}
