// Package cache adds a read-through ristretto cache in front of a
// gallery.MetadataStore. Only Get is cached. Set and Delete invalidate the
// key before writing through, and ListByPrefix always goes to the store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/sagarc03/gallery"
)

// Config controls cache sizing.
type Config struct {
	Enabled bool          `mapstructure:"enabled"`
	MaxCost int64         `mapstructure:"max_cost"` // Number of records kept
	TTL     time.Duration `mapstructure:"ttl"`      // Zero means no expiry
}

// Store wraps a MetadataStore with a cache.
type Store struct {
	next  gallery.MetadataStore
	cache *ristretto.Cache
	ttl   time.Duration
}

// New wraps next. MaxCost defaults to 10000 records.
func New(next gallery.MetadataStore, cfg Config) (*Store, error) {
	if next == nil {
		return nil, errors.New("new cache: store is required")
	}

	maxCost := cfg.MaxCost
	if maxCost <= 0 {
		maxCost = 10000
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("new cache: %w", err)
	}

	return &Store{next: next, cache: c, ttl: cfg.TTL}, nil
}

func (s *Store) Get(ctx context.Context, key string) (gallery.ImageRecord, error) {
	if v, ok := s.cache.Get(key); ok {
		if r, ok := v.(gallery.ImageRecord); ok {
			return r.Clone(), nil
		}
	}

	r, err := s.next.Get(ctx, key)
	if err != nil {
		return gallery.ImageRecord{}, err
	}

	s.cache.SetWithTTL(key, r.Clone(), 1, s.ttl)
	return r, nil
}

func (s *Store) Set(ctx context.Context, key string, record gallery.ImageRecord) error {
	s.cache.Del(key)
	err := s.next.Set(ctx, key, record)
	s.cache.Del(key)
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.cache.Del(key)
	err := s.next.Delete(ctx, key)
	s.cache.Del(key)
	return err
}

func (s *Store) ListByPrefix(ctx context.Context, prefix string) ([]gallery.ImageRecord, error) {
	return s.next.ListByPrefix(ctx, prefix)
}

// Wait blocks until buffered cache writes are applied.
func (s *Store) Wait() {
	s.cache.Wait()
}

// Close releases the cache. The wrapped store is left open.
func (s *Store) Close() {
	s.cache.Close()
}
