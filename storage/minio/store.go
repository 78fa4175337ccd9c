// Package minio stores gallery blobs in a MinIO (or other S3 compatible)
// bucket through minio-go.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sagarc03/gallery"
)

// MaxPresignTTL is the longest validity MinIO accepts for a presigned URL.
const MaxPresignTTL = 7 * 24 * time.Hour

// Config holds MinIO connection settings.
type Config struct {
	Endpoint  string `mapstructure:"endpoint"` // host:port, no scheme
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Store is a blob store backed by one MinIO bucket.
type Store struct {
	client *minio.Client
	bucket string
	region string
}

// New creates a client for cfg. No request is made until first use.
func New(cfg Config, bucket string) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("new minio store: endpoint is required")
	}
	if bucket == "" {
		return nil, errors.New("new minio store: bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("new minio store: %w", err)
	}

	return &Store{client: client, bucket: bucket, region: cfg.Region}, nil
}

// EnsureReady creates the bucket if it does not exist. Another process
// creating it first is not an error.
func (s *Store) EnsureReady(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	if err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}

	slog.Info("created bucket", "bucket", s.bucket)
	return nil
}

func (s *Store) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. S3 semantics make deleting a missing object succeed.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).StatusCode == http.StatusNotFound {
			return gallery.ErrNotFound
		}
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// SignedURL presigns a GET for key. ttl is capped at MaxPresignTTL.
func (s *Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, clampTTL(ttl), url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

// List returns every object in the bucket.
func (s *Store) List(ctx context.Context) ([]gallery.BlobInfo, error) {
	blobs := []gallery.BlobInfo{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		blobs = append(blobs, gallery.BlobInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
	}
	return blobs, nil
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > MaxPresignTTL {
		return MaxPresignTTL
	}
	return ttl
}
