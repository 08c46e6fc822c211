// Package snapshot caches fetched live entities in a local SQLite
// database. A cached snapshot lets check runs work offline and keeps CI
// reconciliation reproducible against a pinned state of the API.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tarkovhub/overlay/pkg/apply"
	"github.com/tarkovhub/overlay/pkg/errors"
	"github.com/tarkovhub/overlay/pkg/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	category   TEXT NOT NULL,
	mode       TEXT NOT NULL DEFAULT '',
	payload    BLOB NOT NULL,
	fetched_at TEXT NOT NULL,
	PRIMARY KEY (category, mode)
);`

// Store is a SQLite-backed snapshot cache.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the snapshot database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?cache=shared")
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.WrapIO("create", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a category's entities, replacing any previous snapshot for
// the same category and mode.
func (s *Store) Put(ctx context.Context, category, mode string, entities []apply.Entity) error {
	payload, err := json.Marshal(entities)
	if err != nil {
		return errors.WrapParse("json", "snapshot "+category, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (category, mode, payload, fetched_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (category, mode) DO UPDATE SET
		   payload = excluded.payload, fetched_at = excluded.fetched_at`,
		category, mode, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errors.WrapIO("write", "snapshot "+category, err)
	}

	logging.Debug().
		Str("category", category).
		Str("mode", mode).
		Int("entities", len(entities)).
		Msg("Stored snapshot")
	return nil
}

// Get returns a category's cached entities. maxAge of zero accepts any
// snapshot age; otherwise snapshots older than maxAge return ErrStale.
func (s *Store) Get(ctx context.Context, category, mode string, maxAge time.Duration) ([]apply.Entity, error) {
	var payload []byte
	var fetchedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM snapshots WHERE category = ? AND mode = ?`,
		category, mode).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, &errors.NotFoundError{Resource: "snapshot", ID: category}
	}
	if err != nil {
		return nil, errors.WrapIO("read", "snapshot "+category, err)
	}

	if maxAge > 0 {
		ts, err := time.Parse(time.RFC3339, fetchedAt)
		if err != nil || time.Since(ts) > maxAge {
			return nil, errors.ErrStale
		}
	}

	var entities []apply.Entity
	if err := json.Unmarshal(payload, &entities); err != nil {
		return nil, errors.WrapParse("json", "snapshot "+category, err)
	}
	return entities, nil
}

// FetchedAt reports when a snapshot was stored.
func (s *Store) FetchedAt(ctx context.Context, category, mode string) (time.Time, error) {
	var fetchedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM snapshots WHERE category = ? AND mode = ?`,
		category, mode).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, &errors.NotFoundError{Resource: "snapshot", ID: category}
	}
	if err != nil {
		return time.Time{}, errors.WrapIO("read", "snapshot "+category, err)
	}
	return time.Parse(time.RFC3339, fetchedAt)
}
