// Package postgres implements gallery.MetadataStore on a PostgreSQL JSONB table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/internal"
)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string // sanitized
}

// NewRepo returns a store over tableName, which must already exist.
func NewRepo(pool *pgxpool.Pool, tableName string) *Repo {
	return &Repo{pool: pool, tableName: pgx.Identifier{tableName}.Sanitize()}
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Get(ctx context.Context, key string) (gallery.ImageRecord, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, r.tableName)

	var value []byte
	err := r.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return gallery.ImageRecord{}, gallery.ErrNotFound
		}
		return gallery.ImageRecord{}, fmt.Errorf("get: %w", err)
	}

	return internal.DecodeRecord(key, value)
}

func (r *Repo) Set(ctx context.Context, key string, record gallery.ImageRecord) error {
	value, err := internal.EncodeRecord(record)
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, value)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = NOW()
	`, r.tableName)

	if _, err := r.pool.Exec(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("set: %w", err)
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, r.tableName)

	if _, err := r.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

func (r *Repo) ListByPrefix(ctx context.Context, prefix string) ([]gallery.ImageRecord, error) {
	query := fmt.Sprintf(`
		SELECT key, value
		FROM %s
		WHERE key LIKE $1 ESCAPE '\'
		ORDER BY key COLLATE "C"
	`, r.tableName)

	rows, err := r.pool.Query(ctx, query, gallery.EscapeLikePattern(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("list by prefix: %w", err)
	}
	defer rows.Close()

	records := []gallery.ImageRecord{}
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("list by prefix: scan: %w", err)
		}

		record, err := internal.DecodeRecord(key, value)
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
