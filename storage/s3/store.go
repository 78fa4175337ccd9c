// Package s3 stores gallery blobs in an Amazon S3 bucket, or any service
// speaking the S3 API, through aws-sdk-go-v2.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sagarc03/gallery"
)

// MaxPresignTTL is the longest validity SigV4 allows for a presigned URL.
const MaxPresignTTL = 7 * 24 * time.Hour

// Config holds S3 connection settings. Empty credentials fall back to the
// default AWS credential chain (environment, shared config, instance role).
type Config struct {
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"` // custom endpoint URL, e.g. for R2 or MinIO
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// Store is a blob store backed by one S3 bucket.
type Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	region    string
}

// New loads the AWS configuration and builds a client for bucket.
func New(ctx context.Context, cfg Config, bucket string) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("new s3 store: bucket is required")
	}

	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new s3 store: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		region:    awsCfg.Region,
	}, nil
}

// EnsureReady creates the bucket if it does not exist. Another process
// creating it first is not an error.
func (s *Store) EnsureReady(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	_, err = s.client.CreateBucket(ctx, input)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}

	slog.Info("created bucket", "bucket", s.bucket)
	return nil
}

// Put uploads content with an unsigned payload so non-seekable readers work.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          content,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}, s3.WithAPIOptions(v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware))
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. S3 semantics make deleting a missing object succeed.
func (s *Store) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return gallery.ErrNotFound
		}
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// SignedURL presigns a GET for key. ttl is capped at MaxPresignTTL.
func (s *Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 || ttl > MaxPresignTTL {
		ttl = MaxPresignTTL
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

// List returns every object in the bucket.
func (s *Store) List(ctx context.Context) ([]gallery.BlobInfo, error) {
	blobs := []gallery.BlobInfo{}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			blobs = append(blobs, gallery.BlobInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				ContentType:  gallery.DetectContentType(aws.ToString(obj.Key)),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	return blobs, nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	return false
}
