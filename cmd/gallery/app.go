package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/config"
	"github.com/sagarc03/gallery/database"
	"github.com/sagarc03/gallery/keybackend"
	"github.com/sagarc03/gallery/storage"
)

// app bundles what every command needs: the catalog and the stores under it.
type app struct {
	catalog *gallery.CatalogService
	blobs   gallery.BlobStore
	signing keybackend.KeyPair
	close   func()
}

// openApp connects the metadata store, opens the blob store and builds the
// catalog service. With prepare set the blob store is made ready first, which
// may create the bucket; commands that write blobs pass true.
func openApp(ctx context.Context, cfg *config.Config, prepare bool) (*app, error) {
	signing, err := signingPair(cfg)
	if err != nil {
		return nil, err
	}
	presigner := gallery.NewPresigner(cfg.Auth.Region, cfg.Auth.Service, signing.AccessKey, signing.SecretKey)

	storageCfg := cfg.Storage
	if storageCfg.Filesystem.BaseURL == "" {
		storageCfg.Filesystem.BaseURL = cfg.PublicBaseURL()
	}

	meta, closeDB, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	slog.Info("connected to database", "type", cfg.Database.Type, "cache", cfg.Database.Cache.Enabled)

	blobs, closeBlobs, err := storage.Open(ctx, storageCfg, presigner)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	catalog, err := gallery.NewCatalogService(meta, blobs, gallery.ServiceConfig{
		SignedURLTTL:       cfg.Catalog.SignedURLTTL,
		RefreshConcurrency: cfg.Catalog.RefreshConcurrency,
		MaxUploadSize:      cfg.Server.MaxUploadSize,
	})
	if err != nil {
		closeBlobs()
		closeDB()
		return nil, fmt.Errorf("create catalog: %w", err)
	}

	if prepare {
		if err := catalog.EnsureStorageReady(ctx); err != nil {
			closeBlobs()
			closeDB()
			return nil, err
		}
		slog.Info("storage ready", "type", cfg.Storage.Type)
	}

	return &app{
		catalog: catalog,
		blobs:   blobs,
		signing: signing,
		close: func() {
			closeBlobs()
			closeDB()
		},
	}, nil
}

// signingPair returns the configured URL signing keys, or a fresh random pair
// when none are configured.
func signingPair(cfg *config.Config) (keybackend.KeyPair, error) {
	pair := keybackend.KeyPair{AccessKey: cfg.Auth.AccessKey, SecretKey: cfg.Auth.SecretKey}
	if pair.Valid() {
		return pair, nil
	}

	pair, err := keybackend.GenerateKeyPair()
	if err != nil {
		return keybackend.KeyPair{}, err
	}
	if cfg.Storage.Type == "filesystem" {
		slog.Warn("no signing keys configured, generated a temporary pair; file URLs stop working after restart",
			"access_key", pair.AccessKey)
	}
	return pair, nil
}
