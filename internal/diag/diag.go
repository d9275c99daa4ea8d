// Package diag streams pipeline progress notifications. Core packages
// report through the Notifier interface and stay silent otherwise; the
// sinks here decide whether events land in the structured log, a
// WebSocket broadcast, or nowhere.
package diag

import (
	"fmt"
	"time"

	"github.com/FocuswithJustin/RefTax/internal/logging"
)

// Event types.
const (
	TypeProgress = "progress"
	TypeComplete = "complete"
	TypeError    = "error"
)

// Event is one pipeline notification.
type Event struct {
	Type      string `json:"type"`
	Stage     string `json:"stage"`
	Processed int    `json:"processed,omitempty"`
	Added     int    `json:"added,omitempty"`
	Skipped   int    `json:"skipped,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Notifier receives pipeline events.
type Notifier interface {
	Notify(Event)
}

// stamp fills the timestamp when the producer left it empty.
func stamp(e Event) Event {
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return e
}

// Discard drops all events.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Event) {}

// Log routes events to the structured log: progress counters at debug
// level, completions at info, errors at error level.
var Log Notifier = logSink{}

type logSink struct{}

func (logSink) Notify(e Event) {
	e = stamp(e)
	switch e.Type {
	case TypeProgress:
		logging.TreeProgress(e.Processed, e.Added, e.Skipped, "stage", e.Stage)
	case TypeComplete:
		logging.PassSummary(e.Stage, e.Processed, "message", e.Message)
	case TypeError:
		logging.Error("pipeline_error", "stage", e.Stage, "message", e.Message)
	default:
		logging.Info("pipeline_event",
			"type", e.Type,
			"stage", e.Stage,
			"processed", e.Processed,
			"message", e.Message,
		)
	}
}

// Multi fans events out to several sinks.
func Multi(sinks ...Notifier) Notifier {
	return multi(sinks)
}

type multi []Notifier

func (m multi) Notify(e Event) {
	e = stamp(e)
	for _, n := range m {
		n.Notify(e)
	}
}

// BuilderProgress returns a tree-builder progress callback that forwards
// counters as progress events on the given stage.
func BuilderProgress(n Notifier, stage string) func(processed, added, skipped int) {
	return func(processed, added, skipped int) {
		n.Notify(Event{
			Type:      TypeProgress,
			Stage:     stage,
			Processed: processed,
			Added:     added,
			Skipped:   skipped,
		})
	}
}

// PassSummary notifies the completion of a reconciliation pass.
func PassSummary(n Notifier, stage string, affected int) {
	n.Notify(Event{
		Type:      TypeComplete,
		Stage:     stage,
		Processed: affected,
		Message:   fmt.Sprintf("%d records affected", affected),
	})
}
