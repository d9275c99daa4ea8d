package logging

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// capture routes log output into a buffer for the duration of fn and
// restores the default logger afterwards.
func capture(t *testing.T, level Level, format Format, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	old := sink
	sink = &buf
	InitLogger(level, format)
	fn()
	sink = old
	InitLogger(LevelInfo, FormatJSON)
	return buf.String()
}

// record decodes the first JSON log line.
func record(t *testing.T, output string) map[string]any {
	t.Helper()
	line, _, _ := strings.Cut(output, "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("log line %q is not JSON: %v", line, err)
	}
	return m
}

func TestInitLoggerLevelFiltering(t *testing.T) {
	tests := []struct {
		level     Level
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{LevelDebug, true, true, true},
		{LevelInfo, false, true, true},
		{LevelWarn, false, false, true},
		{LevelError, false, false, false},
		{Level(99), false, true, true}, // unknown levels fall back to info
	}

	for _, tt := range tests {
		out := capture(t, tt.level, FormatJSON, func() {
			Debug("d-probe")
			Info("i-probe")
			Warn("w-probe")
			Error("e-probe")
		})
		if got := strings.Contains(out, "d-probe"); got != tt.wantDebug {
			t.Errorf("level %d: debug emitted = %v, want %v", tt.level, got, tt.wantDebug)
		}
		if got := strings.Contains(out, "i-probe"); got != tt.wantInfo {
			t.Errorf("level %d: info emitted = %v, want %v", tt.level, got, tt.wantInfo)
		}
		if got := strings.Contains(out, "w-probe"); got != tt.wantWarn {
			t.Errorf("level %d: warn emitted = %v, want %v", tt.level, got, tt.wantWarn)
		}
		if !strings.Contains(out, "e-probe") {
			t.Errorf("level %d: error record missing", tt.level)
		}
	}
}

func TestInitLoggerFormats(t *testing.T) {
	jsonOut := capture(t, LevelInfo, FormatJSON, func() { Info("probe", "k", "v") })
	record(t, jsonOut) // must decode

	textOut := capture(t, LevelInfo, FormatText, func() { Info("probe", "k", "v") })
	if !strings.Contains(textOut, "msg=probe") || !strings.Contains(textOut, "k=v") {
		t.Errorf("text output = %q, want logfmt-style record", textOut)
	}
}

func TestTimestampIsRFC3339(t *testing.T) {
	out := capture(t, LevelInfo, FormatJSON, func() { Info("probe") })
	rec := record(t, out)
	stamp, ok := rec["time"].(string)
	if !ok {
		t.Fatalf("record has no time field: %v", rec)
	}
	if _, err := time.Parse(time.RFC3339, stamp); err != nil {
		t.Errorf("time %q is not RFC3339: %v", stamp, err)
	}
}

func TestGetLogger(t *testing.T) {
	if GetLogger() == nil {
		t.Fatal("GetLogger() = nil, want the logger installed by init")
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	if got := GetRequestID(ctx); got != "req-42" {
		t.Errorf("GetRequestID() = %q, want req-42", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID(empty ctx) = %q, want empty", got)
	}
	bad := context.WithValue(context.Background(), RequestIDKey, 7)
	if got := GetRequestID(bad); got != "" {
		t.Errorf("GetRequestID(non-string value) = %q, want empty", got)
	}
}

func TestContextHelpersAttachRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "ctx-probe-id")
	helpers := map[string]func(){
		"debug": func() { DebugContext(ctx, "m") },
		"info":  func() { InfoContext(ctx, "m") },
		"warn":  func() { WarnContext(ctx, "m") },
		"error": func() { ErrorContext(ctx, "m") },
	}
	for name, fn := range helpers {
		out := capture(t, LevelDebug, FormatJSON, fn)
		if !strings.Contains(out, "ctx-probe-id") {
			t.Errorf("%s helper dropped the request ID: %q", name, out)
		}
	}
}

func TestHTTPRequest(t *testing.T) {
	out := capture(t, LevelInfo, FormatJSON, func() {
		HTTPRequest("GET", "/runs", "10.0.0.1:5555", 200, 80*time.Millisecond)
	})
	rec := record(t, out)
	if rec["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", rec["msg"])
	}
	if rec["method"] != "GET" || rec["path"] != "/runs" {
		t.Errorf("method/path = %v/%v", rec["method"], rec["path"])
	}
	if rec["status_code"] != float64(200) {
		t.Errorf("status_code = %v, want 200", rec["status_code"])
	}
	if rec["duration_ms"] != float64(80) {
		t.Errorf("duration_ms = %v, want 80", rec["duration_ms"])
	}
}

func TestHTTPRequestContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-91")
	out := capture(t, LevelInfo, FormatJSON, func() {
		HTTPRequestContext(ctx, "POST", "/jobs", "10.0.0.2:5555", 202, time.Millisecond)
	})
	rec := record(t, out)
	if rec["request_id"] != "req-91" {
		t.Errorf("request_id = %v, want req-91", rec["request_id"])
	}
	if rec["path"] != "/jobs" {
		t.Errorf("path = %v, want /jobs", rec["path"])
	}
}

func TestPassSummary(t *testing.T) {
	out := capture(t, LevelInfo, FormatJSON, func() {
		PassSummary("duplicates", 12, "autofix", true)
	})
	rec := record(t, out)
	if rec["msg"] != "pass_summary" || rec["pass"] != "duplicates" {
		t.Errorf("record = %v, want pass_summary for duplicates", rec)
	}
	if rec["affected"] != float64(12) || rec["autofix"] != true {
		t.Errorf("record = %v, want affected=12 autofix=true", rec)
	}
}

func TestPassError(t *testing.T) {
	out := capture(t, LevelInfo, FormatJSON, func() {
		PassError("merge", "merge_ranks", errors.New("sequence not found: EU861894"))
	})
	rec := record(t, out)
	if rec["msg"] != "pass_error" || rec["operation"] != "merge_ranks" {
		t.Errorf("record = %v, want pass_error for merge_ranks", rec)
	}
	if got, _ := rec["error"].(string); !strings.Contains(got, "EU861894") {
		t.Errorf("error = %q, want the wrapped message", got)
	}
}

func TestTreeProgress(t *testing.T) {
	out := capture(t, LevelDebug, FormatJSON, func() {
		TreeProgress(2000, 1800, 200)
	})
	rec := record(t, out)
	if rec["msg"] != "tree_progress" || rec["processed"] != float64(2000) {
		t.Errorf("record = %v, want tree_progress with processed=2000", rec)
	}

	// Progress is debug-only chatter.
	if out := capture(t, LevelInfo, FormatJSON, func() { TreeProgress(1, 1, 0) }); out != "" {
		t.Errorf("tree_progress emitted at info level: %q", out)
	}
}

func TestWebSocketEvent(t *testing.T) {
	out := capture(t, LevelInfo, FormatJSON, func() {
		WebSocketEvent("client_connected", 5)
	})
	rec := record(t, out)
	if rec["msg"] != "websocket_event" || rec["event"] != "client_connected" {
		t.Errorf("record = %v", rec)
	}
	if rec["client_count"] != float64(5) {
		t.Errorf("client_count = %v, want 5", rec["client_count"])
	}
}

func TestServerStartup(t *testing.T) {
	out := capture(t, LevelInfo, FormatJSON, func() {
		ServerStartup("rest_api", "https", 8443, "database", "/tmp/snapshots.db")
	})
	rec := record(t, out)
	if rec["msg"] != "server_startup" || rec["server_type"] != "rest_api" {
		t.Errorf("record = %v", rec)
	}
	if rec["port"] != float64(8443) || rec["database"] != "/tmp/snapshots.db" {
		t.Errorf("record = %v, want port and extra args", rec)
	}
}

func TestSecurityEvent(t *testing.T) {
	out := capture(t, LevelInfo, FormatJSON, func() {
		SecurityEvent("path_traversal_rejected", "validation")
	})
	rec := record(t, out)
	if rec["msg"] != "security_event" || rec["component"] != "validation" {
		t.Errorf("record = %v", rec)
	}
	if rec["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", rec["level"])
	}
}

func TestStatusRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	rec.WriteHeader(http.StatusNotFound)
	rec.WriteHeader(http.StatusInternalServerError) // ignored
	if rec.status != http.StatusNotFound {
		t.Errorf("status = %d, want first WriteHeader to win", rec.status)
	}

	w = httptest.NewRecorder()
	rec = &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	if _, err := rec.Write([]byte("body")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if rec.status != http.StatusOK || !rec.wrote {
		t.Errorf("implicit header: status = %d, wrote = %v", rec.status, rec.wrote)
	}
}

func TestNewRequestID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newRequestID()
		if len(id) != 16 {
			t.Fatalf("len(%q) = %d, want 16", id, len(id))
		}
		if _, err := hex.DecodeString(id); err != nil {
			t.Fatalf("id %q is not hex: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seenInCtx string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenInCtx = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Fresh ID when the caller sends none.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/runs", nil))
	echoed := w.Header().Get("X-Request-ID")
	if len(echoed) != 16 {
		t.Errorf("generated X-Request-ID = %q, want 16 hex digits", echoed)
	}
	if seenInCtx != echoed {
		t.Errorf("context ID %q differs from echoed header %q", seenInCtx, echoed)
	}

	// A caller-supplied ID is kept.
	req := httptest.NewRequest("GET", "/runs", nil)
	req.Header.Set("X-Request-ID", "caller-chose-this")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "caller-chose-this" {
		t.Errorf("X-Request-ID = %q, want the caller's value", got)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))

	out := capture(t, LevelInfo, FormatJSON, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/runs/abc", nil))
	})
	rec := record(t, out)
	if rec["msg"] != "http_request" || rec["path"] != "/runs/abc" {
		t.Errorf("record = %v", rec)
	}
	if rec["status_code"] != float64(http.StatusForbidden) {
		t.Errorf("status_code = %v, want 403", rec["status_code"])
	}
}

func TestCombinedMiddleware(t *testing.T) {
	handler := CombinedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("no request ID in context")
		}
		w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	out := capture(t, LevelInfo, FormatJSON, func() {
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	})

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
	rec := record(t, out)
	if rec["path"] != "/health" || rec["request_id"] == nil {
		t.Errorf("record = %v, want correlated access-log line", rec)
	}
}
