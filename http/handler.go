package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sagarc03/gallery"
)

// DefaultMaxUploadSize is the upload limit used when none is configured.
const DefaultMaxUploadSize = 10 << 20

// multipartOverhead is the room left for form fields and part headers on
// top of the file itself.
const multipartOverhead = 1 << 20

type Catalog interface {
	Create(ctx context.Context, in gallery.CreateImage, content io.Reader) (gallery.ImageRecord, error)
	List(ctx context.Context, query string) ([]gallery.ImageRecord, error)
	Get(ctx context.Context, id string) (gallery.ImageRecord, error)
	Delete(ctx context.Context, id string) error
}

// FileOpener opens locally stored blobs for the /files/ route.
type FileOpener interface {
	Open(ctx context.Context, key string) (*os.File, gallery.BlobInfo, error)
}

// RequestVerifier checks a presigned request.
type RequestVerifier interface {
	Verify(method, path string, query url.Values, headers http.Header) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// BasePath mounts every route under a prefix, e.g. "/gallery".
	BasePath      string
	MaxUploadSize int64
	CORS          CORSConfig
	// Files serves signed blob downloads when the blob store is local.
	Files        FileOpener
	FileVerifier RequestVerifier
	// Metrics records request metrics and exposes /metrics when set.
	Metrics *Metrics
}

// Handler provides HTTP handlers for the image catalog.
type Handler struct {
	config  HandlerConfig
	catalog Catalog
}

// NewHandler creates a new Handler with the given configuration and catalog.
func NewHandler(config *HandlerConfig, catalog Catalog) *Handler {
	cfg := *config
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DefaultMaxUploadSize
	}
	cfg.BasePath = strings.TrimSuffix(cfg.BasePath, "/")

	return &Handler{
		config:  cfg,
		catalog: catalog,
	}
}

// Router returns an http.Handler with every route mounted under the base path.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	if h.config.Metrics != nil {
		r.Use(h.config.Metrics.Middleware)
	}

	routes := func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Get("/images", h.handleList)
		r.Get("/images/{id}", h.handleGet)
		r.Delete("/images/{id}", h.handleDelete)
		r.Post("/upload", h.handleUpload)

		if h.config.Files != nil {
			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(h.config.FileVerifier))
				r.Use(PathValidationMiddleware)
				r.Get("/files/*", h.handleFile)
			})
		}

		if h.config.Metrics != nil {
			r.Handle("/metrics", h.config.Metrics.Handler())
		}
	}

	if h.config.BasePath == "" {
		routes(r)
	} else {
		r.Route(h.config.BasePath, routes)
	}

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	images, err := h.catalog.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{"images": images})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	image, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{"image": image})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "File too large")
		case errors.Is(err, http.ErrMissingFile):
			WriteError(w, http.StatusBadRequest, "invalid_input", "No file provided")
		default:
			WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid multipart form")
		}
		return
	}
	defer func() { _ = file.Close() }()
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	if header.Size == 0 {
		WriteError(w, http.StatusBadRequest, "invalid_input", "No file provided")
		return
	}
	if header.Size > h.config.MaxUploadSize {
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "File too large")
		return
	}

	in := gallery.CreateImage{
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		Tags:         r.FormValue("tags"),
	}

	image, err := h.catalog.Create(r.Context(), in, file)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{"success": true, "image": image})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Image deleted successfully",
	})
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	file, info, err := h.config.Files.Open(r.Context(), key)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = file.Close() }()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")

	http.ServeContent(w, r, key, info.LastModified, file)
}
