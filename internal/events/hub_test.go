package events

import (
	"encoding/json"
	"testing"
)

func TestHubPublishSubscribe(t *testing.T) {
	t.Parallel()

	h := NewHub(8)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(TaskStarted, map[string]any{"task": "formatJson"})

	ev := <-ch
	if ev.Type != TaskStarted {
		t.Fatalf("expected %q, got %q", TaskStarted, ev.Type)
	}
	var data map[string]any
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if data["task"] != "formatJson" {
		t.Fatalf("unexpected payload: %v", data)
	}
}

func TestHubSnapshotSince(t *testing.T) {
	t.Parallel()

	h := NewHub(4)
	for range 6 {
		h.Publish(QueueLength, map[string]int{"length": 1})
	}

	// Ring capacity is 4, so only the last 4 events survive.
	all := h.SnapshotSince(0)
	if len(all) != 4 {
		t.Fatalf("expected 4 buffered events, got %d", len(all))
	}
	if all[0].ID != 3 || all[3].ID != 6 {
		t.Fatalf("unexpected snapshot range: first=%d last=%d", all[0].ID, all[3].ID)
	}

	since := h.SnapshotSince(5)
	if len(since) != 1 || since[0].ID != 6 {
		t.Fatalf("expected single event with ID 6, got %#v", since)
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	h := NewHub(8)
	_, cancel := h.Subscribe()
	defer cancel()

	// Never read from the channel; publishing must not block once the
	// subscriber buffer fills.
	for range 500 {
		h.Publish(QueueLength, nil)
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	t.Parallel()

	h := NewHub(8)
	ch, cancel := h.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after cancel")
	}

	// Publishing after cancel must not panic.
	h.Publish(TaskCompleted, nil)
}
