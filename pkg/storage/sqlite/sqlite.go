// Package sqlite provides a SQLite-backed storage driver. Policy encodings
// are stored zstd-compressed.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/worstcase/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS policies (
	key          TEXT PRIMARY KEY,
	id           TEXT NOT NULL,
	kind         TEXT NOT NULL,
	digest       TEXT NOT NULL,
	max_history  INTEGER NOT NULL,
	observations INTEGER NOT NULL,
	data         BLOB NOT NULL,
	updated_at   INTEGER NOT NULL
)`

const upsert = `
INSERT INTO policies (key, id, kind, digest, max_history, observations, data, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	kind = excluded.kind,
	digest = excluded.digest,
	max_history = excluded.max_history,
	observations = excluded.observations,
	data = excluded.data,
	updated_at = excluded.updated_at`

const columns = `key, id, kind, digest, max_history, observations, data, updated_at`

// Driver implements storage.Driver on a SQLite database.
type Driver struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ storage.Driver = (*Driver)(nil)

// NewDriver opens (and if needed creates) the database at dbPath.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	return &Driver{db: db, enc: enc, dec: dec}, nil
}

// Put upserts rec under rec.Key. The record ID of an existing key is kept.
func (d *Driver) Put(ctx context.Context, rec *storage.Record) error {
	var existingID string
	if rec != nil {
		err := d.db.QueryRowContext(ctx, `SELECT id FROM policies WHERE key = ?`, rec.Key).Scan(&existingID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("looking up %s: %w", rec.Key, err)
		}
	}
	if err := storage.Prepare(rec, existingID); err != nil {
		return err
	}

	compressed := d.enc.EncodeAll(rec.Data, nil)
	_, err := d.db.ExecContext(ctx, upsert,
		rec.Key, rec.ID, rec.Kind, rec.Digest,
		rec.MaxHistory, rec.Observations,
		compressed, rec.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("storing %s: %w", rec.Key, err)
	}
	return nil
}

// Get retrieves the record stored under key.
func (d *Driver) Get(ctx context.Context, key string) (*storage.Record, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+columns+` FROM policies WHERE key = ?`, key)
	rec, err := d.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	return rec, nil
}

// Has checks if a record exists for key.
func (d *Driver) Has(ctx context.Context, key string) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM policies WHERE key = ?`, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", key, err)
	}
	return n > 0, nil
}

// List returns all records ordered by key.
func (d *Driver) List(ctx context.Context) ([]*storage.Record, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+columns+` FROM policies ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("listing policies: %w", err)
	}
	defer rows.Close()

	var out []*storage.Record
	for rows.Next() {
		rec, err := d.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("listing policies: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes the record stored under key.
func (d *Driver) Delete(ctx context.Context, key string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM policies WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	if n == 0 {
		return storage.NotFoundError{Key: key}
	}
	return nil
}

// Close closes the database and the codec.
func (d *Driver) Close() error {
	d.dec.Close()
	if err := d.enc.Close(); err != nil {
		d.db.Close()
		return err
	}
	return d.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func (d *Driver) scan(s scanner) (*storage.Record, error) {
	var (
		rec        storage.Record
		compressed []byte
		updated    int64
	)
	err := s.Scan(&rec.Key, &rec.ID, &rec.Kind, &rec.Digest,
		&rec.MaxHistory, &rec.Observations, &compressed, &updated)
	if err != nil {
		return nil, err
	}

	rec.Data, err = d.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", rec.Key, err)
	}
	if got := storage.Digest(rec.Data); got != rec.Digest {
		return nil, fmt.Errorf("digest mismatch for %s: stored %s, computed %s", rec.Key, rec.Digest, got)
	}
	rec.UpdatedAt = time.Unix(0, updated).UTC()
	return &rec, nil
}
