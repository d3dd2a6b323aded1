package watch

import (
	"encoding/json"
	"testing"

	"github.com/mattjoyce/vellum/internal/events"
)

func taskEvent(t *testing.T, eventType string, payload map[string]any) events.Event {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return events.Event{Type: eventType, Data: data}
}

func TestTaskLogLifecycle(t *testing.T) {
	l := NewTaskLog(10)

	l.Apply(taskEvent(t, events.TaskStarted, map[string]any{"task": "formatJson"}))
	if run := l.Running(); run == nil || run.Name != "formatJson" {
		t.Fatalf("expected formatJson running, got %+v", run)
	}

	l.Apply(taskEvent(t, events.TaskCompleted, map[string]any{"task": "formatJson", "success": true}))
	if l.Running() != nil {
		t.Fatal("expected no running task after completion")
	}
	if got := l.runs[0].Status; got != "completed" {
		t.Errorf("status = %q, want completed", got)
	}
}

func TestTaskLogFailure(t *testing.T) {
	l := NewTaskLog(10)

	l.Apply(taskEvent(t, events.TaskStarted, map[string]any{"task": "validateJson"}))
	l.Apply(taskEvent(t, events.TaskCompleted, map[string]any{
		"task": "validateJson", "success": false, "error": "unexpected end of input",
	}))

	run := l.runs[0]
	if run.Status != "failed" {
		t.Errorf("status = %q, want failed", run.Status)
	}
	if run.Error == "" {
		t.Error("expected error text to be recorded")
	}
}

func TestTaskLogTimeoutKeepsStatus(t *testing.T) {
	l := NewTaskLog(10)

	l.Apply(taskEvent(t, events.TaskStarted, map[string]any{"task": "hung"}))
	l.Apply(taskEvent(t, events.TaskTimedOut, map[string]any{"task": "hung"}))
	// The paired completion reports success=false but must not overwrite
	// the timed_out status.
	l.Apply(taskEvent(t, events.TaskCompleted, map[string]any{"task": "hung", "success": false}))

	if got := l.runs[0].Status; got != "timed_out" {
		t.Errorf("status = %q, want timed_out", got)
	}
}

func TestTaskLogRejection(t *testing.T) {
	l := NewTaskLog(10)

	l.Apply(taskEvent(t, events.TaskRejected, map[string]any{"task": "overflow"}))
	if got := l.runs[0].Status; got != "rejected" {
		t.Errorf("status = %q, want rejected", got)
	}
	if l.Running() != nil {
		t.Error("rejected task must not count as running")
	}
}

func TestTaskLogCapsEntries(t *testing.T) {
	l := NewTaskLog(3)
	for range 5 {
		l.Apply(taskEvent(t, events.TaskRejected, map[string]any{"task": "x"}))
	}
	if len(l.runs) != 3 {
		t.Errorf("len(runs) = %d, want 3", len(l.runs))
	}
}
