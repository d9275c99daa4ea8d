package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateAuthConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  AuthConfig
		wantErr bool
	}{
		{
			name:    "disabled auth is always valid",
			config:  AuthConfig{Enabled: false},
			wantErr: false,
		},
		{
			name:    "enabled without key",
			config:  AuthConfig{Enabled: true, APIKey: ""},
			wantErr: true,
		},
		{
			name:    "enabled with short key",
			config:  AuthConfig{Enabled: true, APIKey: "short"},
			wantErr: true,
		},
		{
			name:    "enabled with strong key",
			config:  AuthConfig{Enabled: true, APIKey: "0123456789abcdef0123456789abcdef"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAuthConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAuthConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	const key = "0123456789abcdef0123456789abcdef"
	cfg := AuthConfig{Enabled: true, APIKey: key}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthMiddleware(cfg, next)

	tests := []struct {
		name       string
		path       string
		apiKey     string
		wantStatus int
	}{
		{
			name:       "public root endpoint bypasses auth",
			path:       "/",
			wantStatus: http.StatusOK,
		},
		{
			name:       "public health endpoint bypasses auth",
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing key on protected endpoint",
			path:       "/runs",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong key on protected endpoint",
			path:       "/runs",
			apiKey:     "wrong-key-wrong-key-wrong-key",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid key on protected endpoint",
			path:       "/runs",
			apiKey:     key,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthMiddleware(AuthConfig{Enabled: false}, next)

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
