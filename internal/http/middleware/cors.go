package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowHeaders = "Authorization, Content-Type"
	corsAllowMethods = "GET, POST, PATCH, OPTIONS"
	corsMaxAge       = "600"
)

// CORS grants cross-origin access to the configured origins. A single "*"
// entry echoes any Origin back, which keeps Authorization headers working
// where a literal wildcard would not.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := originMatcher(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")

			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin != "" && allowed(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Max-Age", corsMaxAge)
			}

			if isPreflight(r) {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originMatcher(origins []string) func(string) bool {
	exact := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			return func(string) bool { return true }
		}
		if o != "" {
			exact[o] = struct{}{}
		}
	}
	return func(origin string) bool {
		_, ok := exact[origin]
		return ok
	}
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions &&
		r.Header.Get("Origin") != "" &&
		r.Header.Get("Access-Control-Request-Method") != ""
}
