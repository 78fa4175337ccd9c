package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// MetadataStore defines the interface for image record persistence.
// Implementations must be safe for concurrent use and atomic per key.
//
// All methods accept a context for cancellation and timeout control.
type MetadataStore interface {
	// Get retrieves the record stored under key.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - key: The metadata key, e.g. "image:<id>"
	//
	// Returns:
	//   - ImageRecord: The stored record
	//   - error: ErrNotFound if key doesn't exist, or other backend errors
	Get(ctx context.Context, key string) (ImageRecord, error)

	// Set stores record under key, replacing any existing value.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - key: The metadata key
	//   - record: The record to serialize and store
	//
	// Returns:
	//   - error: Any serialization or backend error
	Set(ctx context.Context, key string, record ImageRecord) error

	// Delete removes the value stored under key.
	// Deleting a missing key is not an error.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - key: The metadata key
	//
	// Returns:
	//   - error: Any backend error
	Delete(ctx context.Context, key string) error

	// ListByPrefix returns every record whose key starts with prefix.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - prefix: Key prefix to match literally
	//
	// Returns:
	//   - []ImageRecord: Matching records in ascending key order, empty (not nil) if none
	//   - error: Any backend error
	ListByPrefix(ctx context.Context, prefix string) ([]ImageRecord, error)
}

// BlobStore defines the interface for image byte storage.
// Implementations can use the local filesystem, MinIO, S3 or a Stowry server.
type BlobStore interface {
	// Put stores content under key.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - key: Storage key, always a valid path (see IsValidPath)
	//   - content: Reader providing the bytes
	//   - size: Number of bytes content will yield
	//   - contentType: MIME type recorded with the object
	//
	// Returns:
	//   - error: Any storage or I/O error
	Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error

	// Remove deletes the object stored under key.
	//
	// Returns:
	//   - error: ErrNotFound if the backend can tell the object is missing, or other storage errors
	Remove(ctx context.Context, key string) error

	// SignedURL returns a URL granting read access to key for ttl.
	// Backends with a shorter maximum validity clamp ttl to it.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// EnsureReady prepares the backend (e.g. creates the bucket) and must be
	// idempotent. Losing a creation race to another process is not an error.
	EnsureReady(ctx context.Context) error
}

// BlobLister is implemented by blob stores that can enumerate their objects.
// It is required for orphan sweeps.
type BlobLister interface {
	List(ctx context.Context) ([]BlobInfo, error)
}

// CatalogService implements the image catalog on top of a metadata store and
// a blob store.
type CatalogService struct {
	meta         MetadataStore
	blobs        BlobStore
	ttl          time.Duration
	concurrency  int
	maxSize      int64
	now          func() time.Time
	storageReady atomic.Bool
}

// ServiceConfig holds configuration options for CatalogService.
type ServiceConfig struct {
	SignedURLTTL       time.Duration    // Validity of signed URLs (default: one year)
	RefreshConcurrency int              // Parallel URL refreshes per list (default: 16)
	MaxUploadSize      int64            // Largest accepted upload in bytes, 0 means no limit
	Clock              func() time.Time // Time source (default: time.Now)
}

func NewCatalogService(meta MetadataStore, blobs BlobStore, cfg ServiceConfig) (*CatalogService, error) {
	if meta == nil {
		return nil, errors.New("new catalog service: metadata store is required")
	}
	if blobs == nil {
		return nil, errors.New("new catalog service: blob store is required")
	}
	if cfg.MaxUploadSize < 0 {
		return nil, fmt.Errorf("new catalog service: invalid max upload size: %d", cfg.MaxUploadSize)
	}

	ttl := cfg.SignedURLTTL
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	concurrency := cfg.RefreshConcurrency
	if concurrency <= 0 {
		concurrency = 16
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &CatalogService{
		meta:        meta,
		blobs:       blobs,
		ttl:         ttl,
		concurrency: concurrency,
		maxSize:     cfg.MaxUploadSize,
		now:         now,
	}, nil
}

// EnsureStorageReady prepares the blob store once. Later calls after a
// success return immediately; failed calls may be retried.
func (s *CatalogService) EnsureStorageReady(ctx context.Context) error {
	if s.storageReady.Load() {
		return nil
	}

	if err := s.blobs.EnsureReady(ctx); err != nil {
		return fmt.Errorf("ensure storage ready: %w: %w", ErrStorage, err)
	}

	s.storageReady.Store(true)
	return nil
}

// Create uploads an image and registers its record.
//
// The method performs the following steps:
//  1. Validates input (non-empty content, size limit, title)
//  2. Writes the blob under a freshly generated filename
//  3. Signs a read URL for the blob
//  4. Stores the record under "image:<id>"
//
// Parameters:
//   - ctx: Context checked before any I/O. Once writing starts the operation runs
//     to completion even if ctx is cancelled.
//   - in: Upload description. Title defaults to OriginalName when blank.
//   - content: Reader providing exactly in.Size bytes
//
// Error types returned:
//   - ErrInvalidInput: Missing or empty content, upload too large, blank title
//   - ErrStorage: Blob write or URL signing failed; no record was written
//   - ErrPersistence: Record write failed; the blob stays behind until a sweep removes it
func (s *CatalogService) Create(ctx context.Context, in CreateImage, content io.Reader) (ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return ImageRecord{}, fmt.Errorf("create image: %w", err)
	}

	if content == nil || in.Size <= 0 {
		return ImageRecord{}, fmt.Errorf("create image: %w: no file provided", ErrInvalidInput)
	}

	if s.maxSize > 0 && in.Size > s.maxSize {
		return ImageRecord{}, fmt.Errorf("create image: %w: file size %d exceeds limit of %d bytes", ErrInvalidInput, in.Size, s.maxSize)
	}

	title := in.Title
	if title == "" {
		title = in.OriginalName
	}
	if title == "" {
		return ImageRecord{}, fmt.Errorf("create image: %w: title cannot be empty", ErrInvalidInput)
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = DetectContentType(in.OriginalName)
	}

	wctx := context.WithoutCancel(ctx)
	uploadedAt := s.now().UTC()
	filename := GenerateFilename(in.OriginalName, uploadedAt, uuid.New())

	if err := s.blobs.Put(wctx, filename, content, in.Size, contentType); err != nil {
		return ImageRecord{}, fmt.Errorf("create image %s: %w: %w", filename, ErrStorage, err)
	}

	url, err := s.blobs.SignedURL(wctx, filename, s.ttl)
	if err != nil {
		return ImageRecord{}, fmt.Errorf("create image %s: sign url: %w: %w", filename, ErrStorage, err)
	}

	record := ImageRecord{
		ID:           uuid.New().String(),
		Filename:     filename,
		OriginalName: in.OriginalName,
		URL:          url,
		Title:        title,
		Description:  in.Description,
		Tags:         ParseTags(in.Tags),
		UploadedAt:   uploadedAt,
		Size:         in.Size,
		Type:         contentType,
	}

	if err := s.meta.Set(wctx, RecordKey(record.ID), record); err != nil {
		slog.Warn("image blob left without record", "filename", filename, "err", err)
		return ImageRecord{}, fmt.Errorf("create image %s: %w: %w", filename, ErrPersistence, err)
	}

	return record, nil
}

// List returns every record matching query, newest first, with freshly
// signed URLs. An empty query returns the whole catalog.
//
// Records with equal upload times keep the order the metadata store returned
// them in. A record whose URL cannot be re-signed keeps its stored URL.
//
// Error types returned:
//   - ErrPersistence: The metadata scan failed
func (s *CatalogService) List(ctx context.Context, query string) ([]ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	records, err := s.meta.ListByPrefix(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list images: %w: %w", ErrPersistence, err)
	}

	matched := make([]ImageRecord, 0, len(records))
	for _, r := range records {
		if MatchesQuery(r, query) {
			matched = append(matched, r.Clone())
		}
	}

	slices.SortStableFunc(matched, func(a, b ImageRecord) int {
		return b.UploadedAt.Compare(a.UploadedAt)
	})

	s.refreshURLs(ctx, matched)

	return matched, nil
}

// refreshURLs re-signs every record's URL in place. Failures are logged and
// leave the stored URL untouched.
func (s *CatalogService) refreshURLs(ctx context.Context, records []ImageRecord) {
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i := range records {
		g.Go(func() error {
			url, err := s.blobs.SignedURL(ctx, records[i].Filename, s.ttl)
			if err != nil {
				slog.Warn("failed to refresh image url", "id", records[i].ID, "filename", records[i].Filename, "err", err)
				return nil
			}
			records[i].URL = url
			return nil
		})
	}

	_ = g.Wait()
}

// Get returns a single record with a freshly signed URL.
func (s *CatalogService) Get(ctx context.Context, id string) (ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return ImageRecord{}, fmt.Errorf("get image: %w", err)
	}

	record, err := s.lookup(ctx, id)
	if err != nil {
		return ImageRecord{}, fmt.Errorf("get image: %w", err)
	}

	url, err := s.blobs.SignedURL(ctx, record.Filename, s.ttl)
	if err != nil {
		slog.Warn("failed to refresh image url", "id", id, "filename", record.Filename, "err", err)
	} else {
		record.URL = url
	}

	return record, nil
}

// Delete removes an image from the catalog.
//
// The blob is removed first. A failed blob removal is logged and does not stop
// the record from being deleted, so the catalog always reflects the delete.
//
// Error types returned:
//   - ErrInvalidInput: Empty id
//   - ErrNotFound: No record with this id
//   - ErrPersistence: Reading or deleting the record failed
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}

	record, err := s.lookup(ctx, id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}

	wctx := context.WithoutCancel(ctx)

	if err := s.blobs.Remove(wctx, record.Filename); err != nil {
		slog.Warn("failed to remove image blob", "id", id, "filename", record.Filename, "err", err)
	}

	if err := s.meta.Delete(wctx, RecordKey(id)); err != nil {
		return fmt.Errorf("delete image %s: %w: %w", id, ErrPersistence, err)
	}

	return nil
}

func (s *CatalogService) lookup(ctx context.Context, id string) (ImageRecord, error) {
	if id == "" {
		return ImageRecord{}, fmt.Errorf("%w: id cannot be empty", ErrInvalidInput)
	}

	record, err := s.meta.Get(ctx, RecordKey(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ImageRecord{}, fmt.Errorf("image %s: %w", id, ErrNotFound)
		}
		return ImageRecord{}, fmt.Errorf("image %s: %w: %w", id, ErrPersistence, err)
	}

	return record.Clone(), nil
}

// Sweep removes blobs that no record references.
//
// Keys that do not have the GenerateFilename shape belong to someone else
// sharing the bucket and are skipped.
//
// Only blobs last modified before now-OlderThan are considered, so an upload
// whose record is still being written is never swept. With DryRun set the
// orphans are reported but left in place.
//
// Error types returned:
//   - ErrInvalidInput: The blob store cannot list its objects
//   - ErrStorage: Listing blobs failed
//   - ErrPersistence: Listing records failed
func (s *CatalogService) Sweep(ctx context.Context, opts SweepOptions) (SweepResult, error) {
	if err := ctx.Err(); err != nil {
		return SweepResult{}, fmt.Errorf("sweep: %w", err)
	}

	lister, ok := s.blobs.(BlobLister)
	if !ok {
		return SweepResult{}, fmt.Errorf("sweep: %w: blob store does not support listing", ErrInvalidInput)
	}

	blobs, err := lister.List(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep: %w: %w", ErrStorage, err)
	}

	records, err := s.meta.ListByPrefix(ctx, KeyPrefix)
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep: %w: %w", ErrPersistence, err)
	}

	referenced := make(map[string]struct{}, len(records))
	for _, r := range records {
		referenced[r.Filename] = struct{}{}
	}

	cutoff := s.now().Add(-opts.OlderThan)
	result := SweepResult{Scanned: len(blobs), Orphaned: []string{}}

	for _, b := range blobs {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("sweep: %w", err)
		}

		if _, ok := referenced[b.Key]; ok {
			continue
		}
		if !IsGeneratedFilename(b.Key) {
			result.Skipped++
			continue
		}
		if b.LastModified.After(cutoff) {
			continue
		}

		result.Orphaned = append(result.Orphaned, b.Key)
		if opts.DryRun {
			continue
		}

		removeErr := s.blobs.Remove(ctx, b.Key)
		// Ignore ErrNotFound - blob may have been removed concurrently
		if removeErr != nil && !errors.Is(removeErr, ErrNotFound) {
			return result, fmt.Errorf("sweep '%s': %w: %w", b.Key, ErrStorage, removeErr)
		}
		result.Removed++
	}

	return result, nil
}
