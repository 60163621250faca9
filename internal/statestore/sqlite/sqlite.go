// Package sqlite implements statestore.Gateway on SQLite via the CGO-free
// modernc.org/sqlite driver. Each record is stored as a JSON document so the
// durable fields round-trip exactly like the default file backend.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loykin/respawn/internal/registry"
	"github.com/loykin/respawn/internal/statestore"
)

type DB struct {
	db *sql.DB
}

// New opens (and initializes) a SQLite database at path. Use ":memory:" for
// an in-memory store.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	s := &DB{db: d}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = d.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshot(
			name TEXT PRIMARY KEY,
			record TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`)
	return err
}

func (s *DB) Close() error { return s.db.Close() }

// Save replaces the stored snapshot wholesale inside one transaction.
func (s *DB) Save(ctx context.Context, snap statestore.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot;`); err != nil {
		return err
	}
	updated := snap.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	for name, rec := range snap.Records {
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot(name, record, updated_at) VALUES(?, ?, ?);`,
			name, string(b), updated.UTC()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *DB) Load(ctx context.Context) (statestore.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, record, updated_at FROM snapshot;`)
	if err != nil {
		return statestore.Snapshot{}, fmt.Errorf("%w: query: %v", statestore.ErrCorrupt, err)
	}
	defer func() { _ = rows.Close() }()

	snap := statestore.Snapshot{Records: make(map[string]registry.Record)}
	for rows.Next() {
		var name, doc string
		var updated time.Time
		if err := rows.Scan(&name, &doc, &updated); err != nil {
			return statestore.Snapshot{}, fmt.Errorf("%w: scan: %v", statestore.ErrCorrupt, err)
		}
		var rec registry.Record
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return statestore.Snapshot{}, fmt.Errorf("%w: decode %s: %v", statestore.ErrCorrupt, name, err)
		}
		snap.Records[name] = rec
		if updated.After(snap.UpdatedAt) {
			snap.UpdatedAt = updated
		}
	}
	if err := rows.Err(); err != nil {
		return statestore.Snapshot{}, fmt.Errorf("%w: rows: %v", statestore.ErrCorrupt, err)
	}
	if len(snap.Records) == 0 {
		return statestore.Snapshot{}, nil
	}
	return snap, nil
}
