package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattjoyce/vellum/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	db, err := storage.OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return New(db)
}

func TestSaveAndGet(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	e, err := s.Save(ctx, "json", `{"a": 1}`)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if e.ID == "" || e.Hash == "" || e.SizeBytes != 8 {
		t.Fatalf("unexpected entry: %#v", e)
	}

	got, err := s.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != `{"a": 1}` || got.Syntax != "json" {
		t.Fatalf("unexpected entry: %#v", got)
	}
}

func TestSaveDeduplicatesByHash(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	e1, err := s.Save(ctx, "json", `{"same": true}`)
	if err != nil {
		t.Fatalf("Save 1: %v", err)
	}
	e2, err := s.Save(ctx, "json", `{"same": true}`)
	if err != nil {
		t.Fatalf("Save 2: %v", err)
	}
	if e1.ID != e2.ID {
		t.Fatalf("expected dedupe hit, got distinct ids %s / %s", e1.ID, e2.ID)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 entry after dedupe, got %d", n)
	}
}

func TestListNewestFirst(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "json", `{"first": 1}`); err != nil {
		t.Fatalf("Save 1: %v", err)
	}
	time.Sleep(5 * time.Millisecond) // Distinct created_at timestamps
	if _, err := s.Save(ctx, "markdown", "# second"); err != nil {
		t.Fatalf("Save 2: %v", err)
	}

	entries, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Syntax != "markdown" {
		t.Fatalf("expected newest first, got %s", entries[0].Syntax)
	}
	if entries[0].Content != "" {
		t.Fatal("List should not include full content")
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	e, err := s.Save(ctx, "json", `{"x": 1}`)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, e.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, e.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound from Get, got %v", err)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	for _, c := range []string{`{"a":1}`, `{"b":2}`, `{"c":3}`} {
		if _, err := s.Save(ctx, "json", c); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty history, got %d entries", n)
	}
}

func TestPruneMaxEntries(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	for _, c := range []string{`{"a":1}`, `{"b":2}`, `{"c":3}`, `{"d":4}`} {
		if _, err := s.Save(ctx, "json", c); err != nil {
			t.Fatalf("Save: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	removed, err := s.Prune(ctx, 0, 2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	entries, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 surviving entries, got %d", len(entries))
	}
}

func TestPruneRetention(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "json", `{"old": true}`); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Nothing is older than an hour; prune must be a no-op.
	removed, err := s.Prune(ctx, time.Hour, 0)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected no removals, got %d", removed)
	}
}

func TestPreviewFlattensWhitespace(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	e, err := s.Save(ctx, "json", "{\n  \"a\":\n  1\n}")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if e.Preview != `{ "a": 1 }` {
		t.Fatalf("unexpected preview: %q", e.Preview)
	}
}
