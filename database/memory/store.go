// Package memory implements gallery.MetadataStore in process memory.
// Data is lost when the process exits; it backs tests and throwaway servers.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sagarc03/gallery"
)

// Store is a map-backed metadata store safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string]gallery.ImageRecord
	closed  bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]gallery.ImageRecord)}
}

func (s *Store) Get(ctx context.Context, key string) (gallery.ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return gallery.ImageRecord{}, fmt.Errorf("get: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[key]
	if !ok {
		return gallery.ImageRecord{}, gallery.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *Store) Set(ctx context.Context, key string, record gallery.ImageRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("set: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = record.Clone()
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

func (s *Store) ListByPrefix(ctx context.Context, prefix string) ([]gallery.ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list by prefix: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	records := make([]gallery.ImageRecord, 0, len(keys))
	for _, k := range keys {
		records = append(records, s.records[k].Clone())
	}
	return records, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

type database struct {
	store *Store
}

// Connect returns an in-memory database. The DSN is ignored.
func Connect() *database {
	return &database{store: NewStore()}
}

// Ping fails once the database is closed.
func (d *database) Ping(ctx context.Context) error {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()

	if d.store.closed {
		return errors.New("ping memory: database is closed")
	}
	return ctx.Err()
}

// Migrate is a no-op.
func (d *database) Migrate(context.Context) error { return nil }

// Validate is a no-op.
func (d *database) Validate(context.Context) error { return nil }

func (d *database) GetStore() gallery.MetadataStore {
	return d.store
}

func (d *database) Close() error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	d.store.closed = true
	return nil
}
