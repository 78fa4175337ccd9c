// Package sqlite implements gallery.MetadataStore on a SQLite key/value table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/internal"
)

type repo struct {
	db        *sql.DB
	tableName string // quoted
}

func (r *repo) Get(ctx context.Context, key string) (gallery.ImageRecord, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, r.tableName) //nolint:gosec // G201: table name is validated

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return gallery.ImageRecord{}, gallery.ErrNotFound
		}
		return gallery.ImageRecord{}, fmt.Errorf("get: %w", err)
	}

	return internal.DecodeRecord(key, []byte(value))
}

func (r *repo) Set(ctx context.Context, key string, record gallery.ImageRecord) error {
	value, err := internal.EncodeRecord(record)
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value,
			updated_at = excluded.updated_at`, r.tableName)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := r.db.ExecContext(ctx, query, key, string(value), now, now); err != nil {
		return fmt.Errorf("set: %w", err)
	}

	return nil
}

func (r *repo) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, r.tableName) //nolint:gosec // G201: table name is validated

	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// ListByPrefix uses instr rather than LIKE, which is case-insensitive in
// SQLite and treats _ and % as wildcards.
func (r *repo) ListByPrefix(ctx context.Context, prefix string) ([]gallery.ImageRecord, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT key, value FROM %s
		WHERE instr(key, ?) = 1
		ORDER BY key`, r.tableName)

	rows, err := r.db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("list by prefix: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []gallery.ImageRecord{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("list by prefix: scan: %w", err)
		}

		record, err := internal.DecodeRecord(key, []byte(value))
		if err != nil {
			return nil, fmt.Errorf("list by prefix: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list by prefix: rows: %w", err)
	}

	return records, nil
}
