// Package api provides the RefTax REST API server.
package api

import (
	"fmt"
	"net/http"
	"os"

	"github.com/FocuswithJustin/RefTax/internal/diag"
	"github.com/FocuswithJustin/RefTax/internal/logging"
	"github.com/FocuswithJustin/RefTax/internal/server"
	"github.com/FocuswithJustin/RefTax/internal/snapshot"
)

// Config holds server configuration.
type Config struct {
	Port              int
	DBPath            string // snapshot database backing the /runs endpoints
	RateLimitRequests int    // requests per minute, 0 disables limiting
	RateLimitBurst    int    // burst size
	Auth              AuthConfig
	TLS               TLSConfig
	AllowedOrigins    []string // CORS allowed origins, empty allows all
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

// ServerConfig is the active server configuration.
var ServerConfig Config

// GlobalHub broadcasts pipeline diagnostics to WebSocket clients.
var GlobalHub *diag.Hub

// runStore is the snapshot store backing the run and job endpoints.
var runStore *snapshot.Store

// Start validates cfg, opens the snapshot store, and serves the REST API
// until the listener fails.
func Start(cfg Config) error {
	ServerConfig = cfg

	if err := ValidateAuthConfig(cfg.Auth); err != nil {
		return fmt.Errorf("invalid auth config: %w", err)
	}
	if err := validateTLSConfig(cfg.TLS); err != nil {
		return err
	}

	// The API only reads snapshots; writes happen through the CLI.
	store, err := snapshot.OpenReadOnly(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	runStore = store

	GlobalHub = diag.NewHub()
	go GlobalHub.Run()

	logStartup(cfg)

	handler := buildHandler(cfg, setupRoutes())

	addr := fmt.Sprintf(":%d", cfg.Port)
	if cfg.TLS.Enabled {
		return http.ListenAndServeTLS(addr, cfg.TLS.CertFile, cfg.TLS.KeyFile, handler)
	}
	return http.ListenAndServe(addr, handler)
}

func validateTLSConfig(tls TLSConfig) error {
	if !tls.Enabled {
		return nil
	}
	if tls.CertFile == "" || tls.KeyFile == "" {
		return fmt.Errorf("TLS enabled but cert or key file not specified")
	}
	if _, err := os.Stat(tls.CertFile); err != nil {
		return fmt.Errorf("TLS cert file not found: %w", err)
	}
	if _, err := os.Stat(tls.KeyFile); err != nil {
		return fmt.Errorf("TLS key file not found: %w", err)
	}
	return nil
}

func logStartup(cfg Config) {
	protocol, wsProtocol := "http", "ws"
	if cfg.TLS.Enabled {
		protocol, wsProtocol = "https", "wss"
		logging.Info("TLS enabled", "cert_file", cfg.TLS.CertFile)
	} else {
		logging.Warn("TLS disabled - using plain HTTP",
			"recommendation", "consider using TLS or reverse proxy for production")
	}
	logging.ServerStartup("rest_api", protocol, cfg.Port,
		"websocket_protocol", wsProtocol,
		"database", server.AbsPath(cfg.DBPath))
}

// buildHandler wraps mux in the middleware chain, innermost first:
// security headers, auth, rate limiting, CORS, request logging.
func buildHandler(cfg Config, mux http.Handler) http.Handler {
	handler := server.SecurityHeadersWithCSP(server.APICSPConfig(), mux)

	if cfg.Auth.Enabled {
		handler = AuthMiddleware(cfg.Auth, handler)
	}
	logging.SecurityEvent("authentication_configured", "api",
		"enabled", cfg.Auth.Enabled)

	if cfg.RateLimitRequests > 0 {
		rlCfg := RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimitRequests,
			BurstSize:         cfg.RateLimitBurst,
		}
		if rlCfg.BurstSize == 0 {
			rlCfg.BurstSize = 10
		}
		handler = NewRateLimiter(rlCfg).Middleware(handler)
		logging.Info("rate limiting enabled",
			"requests_per_minute", rlCfg.RequestsPerMinute,
			"burst_size", rlCfg.BurstSize)
	}

	handler = server.CORSMiddlewareWithConfig(server.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
	}, handler)
	corsMode := "permissive"
	if len(cfg.AllowedOrigins) > 0 {
		corsMode = "restricted"
	}
	logging.SecurityEvent("cors_configured", "api",
		"mode", corsMode,
		"allowed_origins_count", len(cfg.AllowedOrigins))

	return logging.CombinedMiddleware(handler)
}

// setupRoutes configures all HTTP routes.
func setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", handleRoot)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/formats", handleFormats)
	mux.HandleFunc("/runs", handleRuns)
	mux.HandleFunc("/runs/", handleRunByID)
	mux.HandleFunc("/jobs", handleJobs)
	mux.HandleFunc("/jobs/", handleJobByID)
	if GlobalHub != nil {
		mux.Handle("/ws", GlobalHub)
	}

	return mux
}
