// Package storetest provides the behaviour tests every gallery.MetadataStore
// implementation must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sagarc03/gallery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Record builds a test record with the given id.
func Record(id string) gallery.ImageRecord {
	return gallery.ImageRecord{
		ID:           id,
		Filename:     "1700000000000_" + id + ".png",
		OriginalName: id + ".png",
		URL:          "http://localhost/files/1700000000000_" + id + ".png",
		Title:        "Title " + id,
		Description:  "Description " + id,
		Tags:         []string{"a", "b"},
		UploadedAt:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Size:         1024,
		Type:         "image/png",
	}
}

// Run exercises store semantics against the store returned by newStore.
// newStore must return an empty store and register its own cleanup.
func Run(t *testing.T, newStore func(t *testing.T) gallery.MetadataStore) {
	t.Helper()

	t.Run("get missing", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Get(context.Background(), "image:missing")
		assert.ErrorIs(t, err, gallery.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		want := Record("one")

		require.NoError(t, store.Set(ctx, gallery.RecordKey(want.ID), want))

		got, err := store.Get(ctx, gallery.RecordKey(want.ID))
		require.NoError(t, err)
		assertRecordEqual(t, want, got)
	})

	t.Run("set overwrites", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		r := Record("one")

		require.NoError(t, store.Set(ctx, "image:one", r))
		r.Title = "Renamed"
		r.Tags = []string{}
		require.NoError(t, store.Set(ctx, "image:one", r))

		got, err := store.Get(ctx, "image:one")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Empty(t, got.Tags)
		assert.NotNil(t, got.Tags)
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.Set(ctx, "image:one", Record("one")))
		require.NoError(t, store.Delete(ctx, "image:one"))

		_, err := store.Get(ctx, "image:one")
		assert.ErrorIs(t, err, gallery.ErrNotFound)
	})

	t.Run("delete missing is not an error", func(t *testing.T) {
		store := newStore(t)

		assert.NoError(t, store.Delete(context.Background(), "image:missing"))
	})

	t.Run("list empty", func(t *testing.T) {
		store := newStore(t)

		records, err := store.ListByPrefix(context.Background(), gallery.KeyPrefix)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("list by prefix in key order", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		for _, id := range []string{"c", "a", "b"} {
			require.NoError(t, store.Set(ctx, gallery.RecordKey(id), Record(id)))
		}
		require.NoError(t, store.Set(ctx, "session:x", Record("x")))
		require.NoError(t, store.Set(ctx, "IMAGE:upper", Record("upper")))

		records, err := store.ListByPrefix(ctx, gallery.KeyPrefix)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "a", records[0].ID)
		assert.Equal(t, "b", records[1].ID)
		assert.Equal(t, "c", records[2].ID)
	})

	t.Run("prefix wildcards match literally", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.Set(ctx, "a_b:1", Record("1")))
		require.NoError(t, store.Set(ctx, "axb:2", Record("2")))
		require.NoError(t, store.Set(ctx, "a%b*3", Record("3")))
		require.NoError(t, store.Set(ctx, "a%bc", Record("4")))

		records, err := store.ListByPrefix(ctx, "a_b")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "1", records[0].ID)

		records, err = store.ListByPrefix(ctx, "a%b*")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "3", records[0].ID)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				id := fmt.Sprintf("img%02d", i)
				errs <- store.Set(ctx, gallery.RecordKey(id), Record(id))
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		records, err := store.ListByPrefix(ctx, gallery.KeyPrefix)
		require.NoError(t, err)
		assert.Len(t, records, n)
	})
}

func assertRecordEqual(t *testing.T, want, got gallery.ImageRecord) {
	t.Helper()

	assert.True(t, want.UploadedAt.Equal(got.UploadedAt), "uploadedAt: want %s, got %s", want.UploadedAt, got.UploadedAt)
	want.UploadedAt = time.Time{}
	got.UploadedAt = time.Time{}
	assert.Equal(t, want, got)
}
