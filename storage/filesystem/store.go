// Package filesystem provides a local directory blob backend for the gallery.
// It supports atomic writes using temp files and hands out SigV4 presigned
// URLs that the gallery server itself verifies and serves under /files/.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/gallery"
)

// FilesPath is the route prefix under which the server serves stored blobs.
const FilesPath = "/files/"

const tmpPrefix = ".t"

// Store provides file system storage operations.
type Store struct {
	root      *os.Root
	baseURL   *url.URL
	presigner *gallery.Presigner
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
//
// baseURL is the externally reachable server URL including any base path,
// e.g. "http://localhost:5000" or "https://example.com/gallery". Signed URLs
// point at baseURL + "/files/<key>".
func NewFileStorage(root *os.Root, baseURL string, presigner *gallery.Presigner) (*Store, error) {
	if root == nil {
		return nil, errors.New("new file storage: root is required")
	}
	if presigner == nil {
		return nil, errors.New("new file storage: presigner is required")
	}

	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("new file storage: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("new file storage: base url must be absolute: %q", baseURL)
	}

	return &Store{root: root, baseURL: u, presigner: presigner}, nil
}

// Open opens a blob for reading. Returns gallery.ErrNotFound if the file does not exist.
func (s *Store) Open(ctx context.Context, key string) (*os.File, gallery.BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, gallery.BlobInfo{}, err
	}

	if !gallery.IsValidPath(key) || isTmp(key) {
		return nil, gallery.BlobInfo{}, gallery.ErrNotFound
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, gallery.BlobInfo{}, gallery.ErrNotFound
		}
		return nil, gallery.BlobInfo{}, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, gallery.BlobInfo{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, gallery.BlobInfo{}, gallery.ErrNotFound
	}

	return f, gallery.BlobInfo{
		Key:          key,
		Size:         info.Size(),
		ContentType:  gallery.DetectContentType(key),
		LastModified: info.ModTime(),
	}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes content to key using a temp file and rename.
// It creates intermediate directories as needed and fails if content does
// not yield exactly size bytes. The operation respects context cancellation.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, size int64, _ string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if !gallery.IsValidPath(key) || isTmp(key) {
		return fmt.Errorf("put %q: %w: invalid key", key, gallery.ErrInvalidInput)
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	written, err := io.Copy(t, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return fmt.Errorf("could not copy file contents: %w", err)
	}

	if written != size {
		return fmt.Errorf("put %q: %w: expected %d bytes, got %d", key, gallery.ErrInvalidInput, size, written)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("could not sync written file: %w", err)
	}

	destDir := path.Dir(key)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, key); renameErr != nil {
		return fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return nil
}

// Remove deletes a file. Returns gallery.ErrNotFound if the file does not exist.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !gallery.IsValidPath(key) {
		return fmt.Errorf("remove %q: %w: invalid key", key, gallery.ErrInvalidInput)
	}

	err := s.root.Remove(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return gallery.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

// SignedURL presigns a GET for key under the server's /files/ route.
// ttl is capped at gallery.MaxExpiresSeconds.
func (s *Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if maxTTL := time.Duration(gallery.MaxExpiresSeconds) * time.Second; ttl > maxTTL {
		ttl = maxTTL
	}

	u := s.baseURL.JoinPath(FilesPath, key)
	return s.presigner.Presign(http.MethodGet, u.String(), ttl)
}

// EnsureReady checks that the root directory is usable.
func (s *Store) EnsureReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := s.root.Stat(".")
	if err != nil {
		return fmt.Errorf("stat storage root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", s.root.Name())
	}
	return nil
}

// List recursively walks the root directory and returns every stored blob
// with its size, detected content type and modification time. In-flight
// temp files are skipped.
func (s *Store) List(ctx context.Context) ([]gallery.BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []gallery.BlobInfo{}

	err := s.walkDir(ctx, ".", &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return entries, nil
}

func (s *Store) walkDir(ctx context.Context, dir string, entries *[]gallery.BlobInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := s.walkDir(ctx, entryPath, entries); err != nil {
				return err
			}
			continue
		}

		if isTmp(entryPath) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		*entries = append(*entries, gallery.BlobInfo{
			Key:          filepath.ToSlash(entryPath),
			Size:         info.Size(),
			ContentType:  gallery.DetectContentType(entryPath),
			LastModified: info.ModTime(),
		})
	}

	return nil
}

func isTmp(key string) bool {
	return strings.HasPrefix(path.Base(key), tmpPrefix)
}

func tmpFileName() string {
	return fmt.Sprintf("%s%s", tmpPrefix, uuid.New().String())
}
