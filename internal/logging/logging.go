// Package logging is the structured logging layer shared by the CLI and
// the servers. It wraps log/slog with a process-wide logger and typed
// helpers for the events this tool emits: reconciliation pass outcomes,
// tree-builder progress, HTTP traffic and security decisions.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Level selects the minimum severity that gets emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format selects the output encoding.
type Format int

const (
	// FormatJSON emits one JSON object per record.
	FormatJSON Format = iota
	// FormatText emits logfmt-style key=value records.
	FormatText
)

// ContextKey is the key type for values this package stores in a context.
type ContextKey string

// RequestIDKey carries the per-request correlation ID.
const RequestIDKey ContextKey = "request_id"

// sink receives all log output. Tests swap it for a buffer before
// calling InitLogger.
var sink io.Writer = os.Stdout

var defaultLogger *slog.Logger

func init() {
	InitLogger(LevelInfo, FormatJSON)
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger replaces the process-wide logger. Timestamps are rendered in
// RFC3339 regardless of the encoding.
func InitLogger(level Level, format Format) {
	opts := &slog.HandlerOptions{
		Level: slogLevel(level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var h slog.Handler
	if format == FormatText {
		h = slog.NewTextHandler(sink, opts)
	} else {
		h = slog.NewJSONHandler(sink, opts)
	}
	defaultLogger = slog.New(h)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the process-wide logger.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// WithRequestID stores a correlation ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID returns the correlation ID stored in the context, or ""
// when there is none.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// LoggerFromContext returns the process-wide logger, with the context's
// correlation ID attached when one is present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if id := GetRequestID(ctx); id != "" {
		return defaultLogger.With("request_id", id)
	}
	return defaultLogger
}

// Debug logs at debug level with optional key-value pairs.
func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }

// Info logs at info level with optional key-value pairs.
func Info(msg string, args ...any) { defaultLogger.Info(msg, args...) }

// Warn logs at warn level with optional key-value pairs.
func Warn(msg string, args ...any) { defaultLogger.Warn(msg, args...) }

// Error logs at error level with optional key-value pairs.
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

// DebugContext logs at debug level with the context's correlation ID.
func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Debug(msg, args...)
}

// InfoContext logs at info level with the context's correlation ID.
func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Info(msg, args...)
}

// WarnContext logs at warn level with the context's correlation ID.
func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Warn(msg, args...)
}

// ErrorContext logs at error level with the context's correlation ID.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Error(msg, args...)
}

func httpAttrs(method, path, remoteAddr string, statusCode int, elapsed time.Duration, args []any) []any {
	return append([]any{
		"method", method,
		"path", path,
		"remote_addr", remoteAddr,
		"status_code", statusCode,
		"duration_ms", elapsed.Milliseconds(),
	}, args...)
}

// HTTPRequest records one served request.
func HTTPRequest(method, path, remoteAddr string, statusCode int, elapsed time.Duration, args ...any) {
	defaultLogger.Info("http_request", httpAttrs(method, path, remoteAddr, statusCode, elapsed, args)...)
}

// HTTPRequestContext records one served request, correlated through the
// request context.
func HTTPRequestContext(ctx context.Context, method, path, remoteAddr string, statusCode int, elapsed time.Duration, args ...any) {
	LoggerFromContext(ctx).Info("http_request", httpAttrs(method, path, remoteAddr, statusCode, elapsed, args)...)
}

// PassSummary records the outcome of one reconciliation pass: its name and
// how many paths it touched.
func PassSummary(pass string, affected int, args ...any) {
	defaultLogger.Info("pass_summary", append([]any{
		"pass", pass,
		"affected", affected,
	}, args...)...)
}

// PassError records a reconciliation operation that failed.
func PassError(pass, operation string, err error, args ...any) {
	defaultLogger.Error("pass_error", append([]any{
		"pass", pass,
		"operation", operation,
		"error", err.Error(),
	}, args...)...)
}

// TreeProgress records tree-builder counters mid-build.
func TreeProgress(processed, added, skipped int, args ...any) {
	defaultLogger.Debug("tree_progress", append([]any{
		"processed", processed,
		"added", added,
		"skipped", skipped,
	}, args...)...)
}

// WebSocketEvent records a diagnostic-hub client change.
func WebSocketEvent(event string, clientCount int, args ...any) {
	defaultLogger.Info("websocket_event", append([]any{
		"event", event,
		"client_count", clientCount,
	}, args...)...)
}

// ServerStartup records a server coming up.
func ServerStartup(serverType, protocol string, port int, args ...any) {
	defaultLogger.Info("server_startup", append([]any{
		"server_type", serverType,
		"protocol", protocol,
		"port", port,
	}, args...)...)
}

// SecurityEvent records a security-relevant decision at warn level so it
// stands out of the request stream.
func SecurityEvent(event, component string, args ...any) {
	defaultLogger.Warn("security_event", append([]any{
		"event", event,
		"component", component,
	}, args...)...)
}
