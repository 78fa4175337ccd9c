// Package badger implements gallery.MetadataStore on an embedded Badger database.
package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/database/internal"
)

type store struct {
	db *badger.DB
}

func (s *store) Get(ctx context.Context, key string) (gallery.ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return gallery.ImageRecord{}, fmt.Errorf("get: %w", err)
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return gallery.ImageRecord{}, gallery.ErrNotFound
		}
		return gallery.ImageRecord{}, fmt.Errorf("get: %w", err)
	}

	return internal.DecodeRecord(key, value)
}

func (s *store) Set(ctx context.Context, key string, record gallery.ImageRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("set: %w", err)
	}

	value, err := internal.EncodeRecord(record)
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}

	return nil
}

func (s *store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// ListByPrefix walks the prefix in a single read transaction. Badger keeps
// keys sorted bytewise, so records come back in key order.
func (s *store) ListByPrefix(ctx context.Context, prefix string) ([]gallery.ImageRecord, error) {
	records := []gallery.ImageRecord{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			key := string(item.KeyCopy(nil))
			value, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read %s: %w", key, err)
			}

			record, err := internal.DecodeRecord(key, value)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list by prefix: %w", err)
	}

	return records, nil
}
