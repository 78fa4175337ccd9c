// Package storage opens the configured blob backend for the gallery.
//
// Supported backends:
//   - filesystem: a local directory served by the gallery server itself
//   - minio: a MinIO bucket
//   - s3: an S3 bucket, or any S3 compatible service
//   - stowry: a remote Stowry server
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/storage/filesystem"
	"github.com/sagarc03/gallery/storage/minio"
	"github.com/sagarc03/gallery/storage/s3"
	"github.com/sagarc03/gallery/storage/stowry"
)

// DefaultBucket is the bucket used when none is configured.
const DefaultBucket = "gallery-images"

// Config holds the configuration for the blob backend.
type Config struct {
	// Type specifies the backend: "filesystem", "minio", "s3" or "stowry"
	Type string `mapstructure:"type" validate:"required,oneof=filesystem minio s3 stowry"`
	// Bucket names the bucket for minio and s3
	Bucket     string           `mapstructure:"bucket"`
	Filesystem FilesystemConfig `mapstructure:"filesystem"`
	MinIO      minio.Config     `mapstructure:"minio"`
	S3         s3.Config        `mapstructure:"s3"`
	Stowry     stowry.Config    `mapstructure:"stowry"`
}

// FilesystemConfig holds settings for the local directory backend.
type FilesystemConfig struct {
	Path    string `mapstructure:"path"`
	BaseURL string `mapstructure:"base_url"`
}

// Open creates the configured blob store and returns it with a cleanup
// function. presigner signs URLs for the filesystem backend and may be nil
// for the others. Open does not call EnsureReady.
func Open(ctx context.Context, cfg Config, presigner *gallery.Presigner) (gallery.BlobStore, func(), error) {
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = DefaultBucket
	}

	switch cfg.Type {
	case "filesystem":
		return openFilesystem(cfg.Filesystem, presigner)
	case "minio":
		store, err := minio.New(cfg.MinIO, bucket)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "s3":
		store, err := s3.New(ctx, cfg.S3, bucket)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "stowry":
		store, err := stowry.New(cfg.Stowry)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %q", cfg.Type)
	}
}

func openFilesystem(cfg FilesystemConfig, presigner *gallery.Presigner) (gallery.BlobStore, func(), error) {
	if cfg.Path == "" {
		return nil, nil, errors.New("open filesystem storage: path is required")
	}

	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, nil, fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage root: %w", err)
	}

	store, err := filesystem.NewFileStorage(root, cfg.BaseURL, presigner)
	if err != nil {
		_ = root.Close()
		return nil, nil, err
	}

	cleanup := func() {
		_ = root.Close()
	}
	return store, cleanup, nil
}
