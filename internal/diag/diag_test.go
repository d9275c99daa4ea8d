package diag

import (
	"testing"
	"time"
)

// recorder captures events for assertions.
type recorder struct {
	events []Event
}

func (r *recorder) Notify(e Event) {
	r.events = append(r.events, e)
}

func TestStamp(t *testing.T) {
	e := stamp(Event{Type: TypeProgress})
	if e.Timestamp == "" {
		t.Fatal("stamp left timestamp empty")
	}
	if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", e.Timestamp, err)
	}

	e = stamp(Event{Timestamp: "2026-01-02T03:04:05Z"})
	if e.Timestamp != "2026-01-02T03:04:05Z" {
		t.Errorf("stamp overwrote existing timestamp: %q", e.Timestamp)
	}
}

func TestDiscard(t *testing.T) {
	// Must accept anything without side effects.
	Discard.Notify(Event{Type: TypeError, Message: "ignored"})
}

func TestLogSink(t *testing.T) {
	// The log sink writes to the global logger; just exercise every
	// event type.
	Log.Notify(Event{Type: TypeProgress, Stage: "tree_build", Processed: 1000, Added: 900, Skipped: 100})
	Log.Notify(Event{Type: TypeComplete, Stage: "normalize", Processed: 42, Message: "42 records affected"})
	Log.Notify(Event{Type: TypeError, Stage: "merge", Message: "boom"})
}

func TestMulti(t *testing.T) {
	first := &recorder{}
	second := &recorder{}
	n := Multi(first, second)

	n.Notify(Event{Type: TypeProgress, Stage: "tree_build", Processed: 5})

	if len(first.events) != 1 || len(second.events) != 1 {
		t.Fatalf("expected 1 event per sink, got %d and %d", len(first.events), len(second.events))
	}
	if first.events[0].Timestamp == "" {
		t.Error("Multi did not stamp the event")
	}
	if first.events[0].Timestamp != second.events[0].Timestamp {
		t.Errorf("sinks saw different timestamps: %q vs %q",
			first.events[0].Timestamp, second.events[0].Timestamp)
	}
	if first.events[0].Processed != 5 {
		t.Errorf("expected processed 5, got %d", first.events[0].Processed)
	}
}

func TestBuilderProgress(t *testing.T) {
	rec := &recorder{}
	cb := BuilderProgress(rec, "tree_build")

	cb(1000, 900, 100)
	cb(2000, 1750, 250)

	if len(rec.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(rec.events))
	}
	e := rec.events[1]
	if e.Type != TypeProgress {
		t.Errorf("expected type %q, got %q", TypeProgress, e.Type)
	}
	if e.Stage != "tree_build" {
		t.Errorf("expected stage tree_build, got %q", e.Stage)
	}
	if e.Processed != 2000 || e.Added != 1750 || e.Skipped != 250 {
		t.Errorf("unexpected counters: %+v", e)
	}
}

func TestPassSummary(t *testing.T) {
	rec := &recorder{}
	PassSummary(rec, "gap_fill", 17)

	if len(rec.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rec.events))
	}
	e := rec.events[0]
	if e.Type != TypeComplete {
		t.Errorf("expected type %q, got %q", TypeComplete, e.Type)
	}
	if e.Stage != "gap_fill" {
		t.Errorf("expected stage gap_fill, got %q", e.Stage)
	}
	if e.Processed != 17 {
		t.Errorf("expected processed 17, got %d", e.Processed)
	}
	if e.Message != "17 records affected" {
		t.Errorf("unexpected message %q", e.Message)
	}
}
