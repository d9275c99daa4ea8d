package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/FocuswithJustin/RefTax/internal/logging"
)

// AuthConfig controls API-key authentication.
type AuthConfig struct {
	Enabled bool
	APIKey  string
}

// minAPIKeyLen rejects keys short enough to brute force.
const minAPIKeyLen = 16

// publicPaths never require authentication, so health probes and root
// discovery work before a key is provisioned.
var publicPaths = map[string]bool{
	"/":       true,
	"/health": true,
}

// ValidateAuthConfig rejects configurations that would leave the API
// silently unprotected.
func ValidateAuthConfig(cfg AuthConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("API key is required when authentication is enabled")
	}
	if len(cfg.APIKey) < minAPIKeyLen {
		return fmt.Errorf("API key must be at least %d characters (got %d)", minAPIKeyLen, len(cfg.APIKey))
	}
	return nil
}

// AuthMiddleware enforces the X-API-Key header on every non-public
// endpoint when authentication is enabled. Key comparison is constant
// time.
func AuthMiddleware(authCfg AuthConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authCfg.Enabled || publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get("X-API-Key")
		switch {
		case key == "":
			logging.SecurityEvent("unauthorized_request", "auth",
				"path", r.URL.Path,
				"reason", "missing API key")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing X-API-Key header")
		case subtle.ConstantTimeCompare([]byte(key), []byte(authCfg.APIKey)) != 1:
			logging.SecurityEvent("unauthorized_request", "auth",
				"path", r.URL.Path,
				"reason", "invalid API key")
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key")
		default:
			next.ServeHTTP(w, r)
		}
	})
}
