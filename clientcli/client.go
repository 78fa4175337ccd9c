package clientcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/gallery"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client performs operations against a gallery server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Upload uploads image file(s) to the server.
// For recursive uploads every regular file below LocalPath is sent with the
// same title, description and tags. Per-file failures are reported in the
// results, not as the returned error.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}

	if !opts.Recursive {
		image, err := c.uploadSingle(ctx, opts.LocalPath, opts)
		if err != nil {
			return nil, err
		}
		return []UploadResult{{LocalPath: opts.LocalPath, Image: image}}, nil
	}

	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !info.IsDir() {
		image, uploadErr := c.uploadSingle(ctx, opts.LocalPath, opts)
		if uploadErr != nil {
			return nil, uploadErr
		}
		return []UploadResult{{LocalPath: opts.LocalPath, Image: image}}, nil
	}

	var results []UploadResult
	walkErr := filepath.WalkDir(opts.LocalPath, func(path string, d fs.DirEntry, fileErr error) error {
		if fileErr != nil {
			return fileErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		image, uploadErr := c.uploadSingle(ctx, path, opts)
		results = append(results, UploadResult{LocalPath: path, Image: image, Err: uploadErr})
		return nil
	})
	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

// uploadSingle streams one file to POST /upload as multipart form data.
func (c *Client) uploadSingle(ctx context.Context, localPath string, opts UploadOptions) (gallery.ImageRecord, error) {
	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return gallery.ImageRecord{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadForm(mw, file, filepath.Base(localPath), opts))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/upload", pr)
	if err != nil {
		_ = pr.Close()
		return gallery.ImageRecord{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var envelope imageEnvelope
	if err := c.doJSON(req, &envelope); err != nil {
		_ = pr.Close()
		return gallery.ImageRecord{}, err
	}

	return envelope.Image, nil
}

func writeUploadForm(mw *multipart.Writer, content io.Reader, filename string, opts UploadOptions) error {
	fields := []struct{ name, value string }{
		{"title", opts.Title},
		{"description", opts.Description},
		{"tags", opts.Tags},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := mw.WriteField(f.name, f.value); err != nil {
			return err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", gallery.DetectContentType(filename))

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}

	return mw.Close()
}

// List returns the catalog, newest first. A non-empty search restricts the
// result to images whose title, description or tags contain it.
func (c *Client) List(ctx context.Context, search string) (*ListResult, error) {
	target := c.endpoint + "/images"
	if search != "" {
		target += "?" + url.Values{"search": []string{search}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var result ListResult
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	if result.Images == nil {
		result.Images = []gallery.ImageRecord{}
	}

	return &result, nil
}

// Health checks that the server answers GET /health.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(req, &status); err != nil {
		return err
	}
	if status.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", status.Status)
	}
	return nil
}

// Get fetches one image record with a freshly signed URL.
func (c *Client) Get(ctx context.Context, id string) (gallery.ImageRecord, error) {
	if id == "" {
		return gallery.ImageRecord{}, fmt.Errorf("get: %w", ErrEmptyID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/images/"+url.PathEscape(id), http.NoBody)
	if err != nil {
		return gallery.ImageRecord{}, fmt.Errorf("create request: %w", err)
	}

	var envelope imageEnvelope
	if err := c.doJSON(req, &envelope); err != nil {
		return gallery.ImageRecord{}, err
	}

	return envelope.Image, nil
}

// Download fetches the image bytes through the record's signed URL.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	image, err := c.Get(ctx, opts.ID)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, image.URL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		ID:          image.ID,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = filepath.Base(image.OriginalName)
		if localPath == "." || localPath == string(filepath.Separator) {
			localPath = image.Filename
		}
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// Delete deletes one or more images by id.
// Continues on error, collecting results for all ids.
func (c *Client) Delete(ctx context.Context, ids []string) ([]DeleteResult, error) {
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}

	results := make([]DeleteResult, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		err := c.deleteSingle(ctx, id)
		results = append(results, DeleteResult{ID: id, Deleted: err == nil, Err: err})
	}

	return results, nil
}

func (c *Client) deleteSingle(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint+"/images/"+url.PathEscape(id), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	var envelope deleteEnvelope
	return c.doJSON(req, &envelope)
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// HasUploadErrors returns true if any upload failed.
func HasUploadErrors(results []UploadResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// doJSON executes req and decodes a 200 response into v.
func (c *Client) doJSON(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseServerError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	return nil
}

// parseServerError extracts the error code and message from a server response.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var envelope errorEnvelope
	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Code = envelope.Error
		apiErr.Message = envelope.Message
	}

	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the image does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrBadRequest is returned when the server rejects the input (400),
	// for example an upload without a file.
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}

	// ErrTooLarge is returned when an upload exceeds the server limit (413).
	ErrTooLarge = &APIError{StatusCode: http.StatusRequestEntityTooLarge}

	// ErrForbidden is returned when a signed file URL is rejected (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}
)
