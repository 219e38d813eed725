package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig defines configuration options for the CORS middleware.
type CORSConfig struct {
	// Skip allows bypassing CORS handling for specific requests
	Skip func(r *http.Request) bool

	// AllowOrigins specifies allowed origins. Entries may end with "*" to
	// match a scheme or prefix (e.g. "chrome-extension://*"). Use "*" for
	// all origins. If empty, defaults to allowing all origins.
	AllowOrigins []string

	// AllowMethods specifies allowed HTTP methods.
	// If empty, defaults to GET, HEAD, PUT, PATCH, POST, DELETE.
	AllowMethods []string

	// AllowHeaders specifies allowed request headers.
	// If empty, defaults to common headers including Authorization and Content-Type.
	AllowHeaders []string

	// AllowCredentials indicates whether credentials are allowed.
	// Ignored for wildcard origins for security reasons.
	AllowCredentials bool

	// MaxAge specifies how long preflight responses can be cached (in seconds).
	MaxAge int
}

// CORS creates a CORS middleware with the given configuration. Preflight
// OPTIONS requests are answered directly; other requests get the
// appropriate Access-Control headers when their origin is allowed.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{
			http.MethodGet, http.MethodHead, http.MethodPut,
			http.MethodPatch, http.MethodPost, http.MethodDelete,
		}
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = []string{
			"Accept", "Authorization", "Content-Type",
			"X-Request-ID", "X-Client-ID", "X-Subscription-Tier",
		}
	}

	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, wildcard := matchOrigin(cfg.AllowOrigins, origin)
			if !allowed {
				// Not an allowed origin: no CORS headers, let the browser block it.
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			if wildcard && !cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			if cfg.AllowCredentials && !wildcard {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", allowMethods)
				w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// matchOrigin reports whether origin matches any allowed pattern and
// whether the match was the global wildcard.
func matchOrigin(patterns []string, origin string) (allowed, wildcard bool) {
	for _, pattern := range patterns {
		switch {
		case pattern == "*":
			return true, true
		case strings.HasSuffix(pattern, "*"):
			if strings.HasPrefix(origin, strings.TrimSuffix(pattern, "*")) {
				return true, false
			}
		case strings.EqualFold(pattern, origin):
			return true, false
		}
	}
	return false, false
}
