// Package stowry stores gallery blobs on a remote Stowry server. Every
// request is authorized with a Stowry presigned URL.
package stowry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/stowry-go"
)

const (
	// MaxPresignTTL caps how long a Stowry signed URL stays valid.
	MaxPresignTTL = 7 * 24 * time.Hour

	// requestExpires is the validity of URLs used for our own requests.
	requestExpires = 900

	listPageSize = 1000
)

// Config holds Stowry connection settings.
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// Store is a blob store backed by a Stowry server.
type Store struct {
	endpoint   string
	accessKey  string
	secretKey  string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		s.httpClient = client
	}
}

// New validates cfg and returns a Store talking to cfg.Endpoint.
func New(cfg Config, opts ...Option) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("new stowry store: endpoint is required")
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("new stowry store: invalid endpoint %q", cfg.Endpoint)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("new stowry store: access key and secret key are required")
	}

	s := &Store{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		accessKey:  cfg.AccessKey,
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EnsureReady is a no-op; the Stowry server owns its storage layout.
func (s *Store) EnsureReady(ctx context.Context) error {
	return ctx.Err()
}

// Put uploads content with a signed PUT.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.presign(http.MethodPut, "/"+key, requestExpires, nil), content)
	if err != nil {
		return fmt.Errorf("put %s: create request: %w", key, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = size

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("put %s: %w", key, serverError(resp))
	}
	return nil
}

// Remove deletes key with a signed DELETE.
func (s *Store) Remove(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.presign(http.MethodDelete, "/"+key, requestExpires, nil), http.NoBody)
	if err != nil {
		return fmt.Errorf("remove %s: create request: %w", key, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return gallery.ErrNotFound
	default:
		return fmt.Errorf("remove %s: %w", key, serverError(resp))
	}
}

// SignedURL returns a signed GET URL for key. ttl is capped at MaxPresignTTL.
func (s *Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if ttl <= 0 || ttl > MaxPresignTTL {
		ttl = MaxPresignTTL
	}
	return s.presign(http.MethodGet, "/"+key, int64(ttl/time.Second), nil), nil
}

// List pages through every object on the server.
func (s *Store) List(ctx context.Context) ([]gallery.BlobInfo, error) {
	blobs := []gallery.BlobInfo{}
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := s.listPage(ctx, cursor)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			blobs = append(blobs, gallery.BlobInfo{
				Key:          strings.TrimPrefix(item.Path, "/"),
				Size:         item.FileSizeBytes,
				ContentType:  item.ContentType,
				LastModified: item.UpdatedAt,
			})
		}

		if page.NextCursor == "" {
			return blobs, nil
		}
		cursor = page.NextCursor
	}
}

type listItem struct {
	Path          string    `json:"path"`
	ContentType   string    `json:"content_type"`
	ETag          string    `json:"etag"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type listResult struct {
	Items      []listItem `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func (s *Store) listPage(ctx context.Context, cursor string) (*listResult, error) {
	extra := url.Values{}
	extra.Set("limit", strconv.Itoa(listPageSize))
	if cursor != "" {
		extra.Set("cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.presign(http.MethodGet, "/", requestExpires, extra), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("list: create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list: %w", serverError(resp))
	}

	var result listResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("list: parse response: %w", err)
	}
	return &result, nil
}

// presign builds a Stowry signed URL for method and path. extra query
// parameters are not covered by the signature.
func (s *Store) presign(method, path string, expires int64, extra url.Values) string {
	timestamp := s.now().Unix()
	sig := stowry.Sign(s.secretKey, method, path, timestamp, expires)

	query := url.Values{}
	for k, v := range extra {
		query[k] = v
	}
	query.Set(stowry.StowryCredentialParam, s.accessKey)
	query.Set(stowry.StowryDateParam, strconv.FormatInt(timestamp, 10))
	query.Set(stowry.StowryExpiresParam, strconv.FormatInt(expires, 10))
	query.Set(stowry.StowrySignatureParam, sig)

	return s.endpoint + (&url.URL{Path: path}).EscapedPath() + "?" + query.Encode()
}

func serverError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%w: server returned %d: %s", gallery.ErrStorage, resp.StatusCode, strings.TrimSpace(string(body)))
}
