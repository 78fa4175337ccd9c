// Package redis implements gallery.MetadataStore on a Redis server.
// Each record is a plain string key holding the record's JSON.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/internal"
)

const scanCount = 500

type store struct {
	client *redis.Client
}

func (s *store) Get(ctx context.Context, key string) (gallery.ImageRecord, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return gallery.ImageRecord{}, gallery.ErrNotFound
		}
		return gallery.ImageRecord{}, fmt.Errorf("get: %w", err)
	}

	return internal.DecodeRecord(key, data)
}

func (s *store) Set(ctx context.Context, key string, record gallery.ImageRecord) error {
	value, err := internal.EncodeRecord(record)
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set: %w", err)
	}

	return nil
}

func (s *store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// ListByPrefix scans matching keys, sorts them and fetches the values with
// MGET. Keys deleted between the scan and the fetch are skipped.
func (s *store) ListByPrefix(ctx context.Context, prefix string) ([]gallery.ImageRecord, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list by prefix: scan: %w", err)
	}

	// SCAN may return a key more than once.
	sort.Strings(keys)
	keys = compact(keys)

	records := make([]gallery.ImageRecord, 0, len(keys))
	for start := 0; start < len(keys); start += scanCount {
		batch := keys[start:min(start+scanCount, len(keys))]

		values, err := s.client.MGet(ctx, batch...).Result()
		if err != nil {
			return nil, fmt.Errorf("list by prefix: mget: %w", err)
		}

		for i, v := range values {
			str, ok := v.(string)
			if !ok {
				continue
			}
			record, err := internal.DecodeRecord(batch[i], []byte(str))
			if err != nil {
				return nil, fmt.Errorf("list by prefix: %w", err)
			}
			records = append(records, record)
		}
	}

	return records, nil
}

func compact(sorted []string) []string {
	out := sorted[:0]
	for i, k := range sorted {
		if i == 0 || k != sorted[i-1] {
			out = append(out, k)
		}
	}
	return out
}

var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)

// escapeGlob escapes Redis MATCH pattern characters so s matches literally.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
