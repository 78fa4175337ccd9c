package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sagarc03/gallery"
)

type database struct {
	client *redis.Client
}

// Connect creates a client for dsn, a redis:// or rediss:// URL such as
// redis://:password@localhost:6379/0. No connection is made until first use.
func Connect(dsn string) (*database, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &database{client: redis.NewClient(opts)}, nil
}

// Ping verifies the server is reachable.
func (d *database) Ping(ctx context.Context) error {
	if err := d.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Migrate is a no-op; Redis has no schema.
func (d *database) Migrate(context.Context) error { return nil }

// Validate is a no-op; Redis has no schema.
func (d *database) Validate(context.Context) error { return nil }

func (d *database) GetStore() gallery.MetadataStore {
	return &store{client: d.client}
}

func (d *database) Close() error {
	return d.client.Close()
}
