// Package history persists viewer documents so a session can be restored
// later. Entries are deduplicated by content hash: re-saving an identical
// document refreshes its timestamp instead of inserting a copy.
package history

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

const previewLength = 80

// ErrNotFound is returned when an entry id does not exist.
var ErrNotFound = errors.New("history entry not found")

// Entry is a stored document.
type Entry struct {
	ID        string    `json:"id"`
	Syntax    string    `json:"syntax"`
	Content   string    `json:"content,omitempty"`
	Hash      string    `json:"hash"`
	Preview   string    `json:"preview"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save stores content, deduplicating on its blake3 hash. On a dedupe hit the
// existing entry's timestamp is refreshed and the existing entry returned.
func (s *Store) Save(ctx context.Context, syntax, content string) (*Entry, error) {
	if content == "" {
		return nil, fmt.Errorf("content is empty")
	}
	if syntax == "" {
		return nil, fmt.Errorf("syntax is empty")
	}

	hash := contentHash(content)
	now := time.Now().UTC()
	nowS := now.Format(time.RFC3339Nano)

	var existingID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM history WHERE content_hash = ?;`, hash).Scan(&existingID)
	if err == nil {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE history SET created_at = ? WHERE id = ?;`, nowS, existingID); err != nil {
			return nil, fmt.Errorf("refresh history entry: %w", err)
		}
		return s.Get(ctx, existingID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check dedupe hash: %w", err)
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		Syntax:    syntax,
		Content:   content,
		Hash:      hash,
		Preview:   makePreview(content),
		SizeBytes: len(content),
		CreatedAt: now,
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO history(id, syntax, content, content_hash, preview, size_bytes, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?);
`, entry.ID, entry.Syntax, entry.Content, entry.Hash, entry.Preview, entry.SizeBytes, nowS)
	if err != nil {
		return nil, fmt.Errorf("insert history entry: %w", err)
	}
	return entry, nil
}

// List returns entries newest-first, without full content.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, syntax, content_hash, preview, size_bytes, created_at
FROM history
ORDER BY created_at DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		var createdAtS string
		if err := rows.Scan(&e.ID, &e.Syntax, &e.Hash, &e.Preview, &e.SizeBytes, &createdAtS); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAtS); err == nil {
			e.CreatedAt = t
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Get returns a single entry including its full content.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	var createdAtS string
	err := s.db.QueryRowContext(ctx, `
SELECT id, syntax, content, content_hash, preview, size_bytes, created_at
FROM history
WHERE id = ?;
`, id).Scan(&e.ID, &e.Syntax, &e.Content, &e.Hash, &e.Preview, &e.SizeBytes, &createdAtS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAtS); err == nil {
		e.CreatedAt = t
	}
	return &e, nil
}

// Delete removes a single entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes all entries.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history;`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// Prune drops entries older than retention and, if maxEntries > 0, trims the
// table down to the newest maxEntries rows. Returns the number removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration, maxEntries int) (int, error) {
	removed := 0

	if retention > 0 {
		cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339Nano)
		res, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE created_at < ?;`, cutoff)
		if err != nil {
			return removed, fmt.Errorf("prune by retention: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += int(n)
		}
	}

	if maxEntries > 0 {
		res, err := s.db.ExecContext(ctx, `
DELETE FROM history
WHERE id NOT IN (
  SELECT id FROM history ORDER BY created_at DESC LIMIT ?
);
`, maxEntries)
		if err != nil {
			return removed, fmt.Errorf("prune by max entries: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += int(n)
		}
	}

	return removed, nil
}

func contentHash(content string) string {
	sum := blake3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func makePreview(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	if len(flat) > previewLength {
		return flat[:previewLength]
	}
	return flat
}
