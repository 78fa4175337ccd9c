// Package database provides a unified interface for connecting to metadata backends.
//
// Every backend stores image records as JSON values under string keys
// ("image:<id>") and implements gallery.MetadataStore.
//
// # Supported Backends
//
//   - memory: In-process map, lost on exit
//   - sqlite: Key/value table using modernc.org/sqlite
//   - postgres: Key/JSONB table using a pgx connection pool
//   - badger: Embedded Badger directory
//   - redis: Plain string keys on a Redis server
//
// Any backend can be fronted by a ristretto read-through cache (see
// database/cache) by enabling Config.Cache.
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "gallery.db",
//	    Tables: gallery.Tables{Records: "gallery_records"},
//	}
//
//	store, cleanup, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// Open automatically:
//   - Opens the connection
//   - Runs schema migrations
//   - Validates the schema
//   - Returns a ready-to-use MetadataStore
package database
