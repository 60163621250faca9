// Package postgres implements statestore.Gateway on PostgreSQL through the
// pgx stdlib driver. Schema mirrors the sqlite backend: one JSON document per
// record, replaced wholesale on every save.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/loykin/respawn/internal/registry"
	"github.com/loykin/respawn/internal/statestore"
)

type DB struct {
	db *sql.DB
}

// New opens a connection pool for dsn. The schema is created lazily on the
// first Save/Load so that constructing a store does not require the server
// to be reachable.
func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

func (p *DB) ensureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshot(
			name TEXT PRIMARY KEY,
			record JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`)
	return err
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) Save(ctx context.Context, snap statestore.Snapshot) error {
	if err := p.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
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
			`INSERT INTO snapshot(name, record, updated_at) VALUES($1, $2, $3);`,
			name, string(b), updated.UTC()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *DB) Load(ctx context.Context) (statestore.Snapshot, error) {
	if err := p.ensureSchema(ctx); err != nil {
		return statestore.Snapshot{}, fmt.Errorf("%w: schema: %v", statestore.ErrCorrupt, err)
	}
	rows, err := p.db.QueryContext(ctx, `SELECT name, record, updated_at FROM snapshot;`)
	if err != nil {
		return statestore.Snapshot{}, fmt.Errorf("%w: query: %v", statestore.ErrCorrupt, err)
	}
	defer func() { _ = rows.Close() }()

	snap := statestore.Snapshot{Records: make(map[string]registry.Record)}
	for rows.Next() {
		var name, doc string
		var updated sql.NullTime
		if err := rows.Scan(&name, &doc, &updated); err != nil {
			return statestore.Snapshot{}, fmt.Errorf("%w: scan: %v", statestore.ErrCorrupt, err)
		}
		var rec registry.Record
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return statestore.Snapshot{}, fmt.Errorf("%w: decode %s: %v", statestore.ErrCorrupt, name, err)
		}
		snap.Records[name] = rec
		if updated.Valid && updated.Time.After(snap.UpdatedAt) {
			snap.UpdatedAt = updated.Time
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
