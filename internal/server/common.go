// Package server provides shared utilities for HTTP servers.
package server

import (
	"net/http"
	"path/filepath"
	"slices"
)

// AbsPath resolves path to an absolute path, falling back to the input
// when resolution fails.
func AbsPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// CORSConfig holds CORS middleware configuration. An empty AllowedOrigins
// list allows every origin via the wildcard.
type CORSConfig struct {
	AllowedOrigins []string
}

// allowOrigin decides which Access-Control-Allow-Origin value a request
// gets: "*" when all origins are allowed, the echoed origin when it is on
// the list, or "" when the origin is blocked.
func (cfg CORSConfig) allowOrigin(origin string) string {
	if len(cfg.AllowedOrigins) == 0 {
		return "*"
	}
	if slices.Contains(cfg.AllowedOrigins, origin) {
		return origin
	}
	return ""
}

// CORSMiddlewareWithConfig adds CORS headers according to cfg. A blocked
// origin gets no CORS headers, which makes the browser reject the
// response; blocked preflights are answered with 403 directly.
func CORSMiddlewareWithConfig(cfg CORSConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed := cfg.allowOrigin(r.Header.Get("Origin"))
		if allowed == "" {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", allowed)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		// Credentials are only meaningful for a concrete origin; browsers
		// reject the combination with the wildcard.
		if allowed != "*" {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeadersMiddleware adds the baseline security headers without a
// Content-Security-Policy.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w.Header())
		next.ServeHTTP(w, r)
	})
}
