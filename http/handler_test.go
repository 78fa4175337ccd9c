package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/gallery"
	galleryhttp "github.com/sagarc03/gallery/http"
	"github.com/sagarc03/gallery/keybackend"
	"github.com/sagarc03/gallery/storage/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalog is a mock implementation of http.Catalog
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Create(ctx context.Context, in gallery.CreateImage, content io.Reader) (gallery.ImageRecord, error) {
	args := m.Called(ctx, in, content)
	return args.Get(0).(gallery.ImageRecord), args.Error(1)
}

func (m *MockCatalog) List(ctx context.Context, query string) ([]gallery.ImageRecord, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gallery.ImageRecord), args.Error(1)
}

func (m *MockCatalog) Get(ctx context.Context, id string) (gallery.ImageRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(gallery.ImageRecord), args.Error(1)
}

func (m *MockCatalog) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func sampleRecord(id string) gallery.ImageRecord {
	return gallery.ImageRecord{
		ID:           id,
		Filename:     "1700000000000_abc.jpg",
		OriginalName: "cat.jpg",
		URL:          "https://cdn.example/files/1700000000000_abc.jpg?sig=1",
		Title:        "Cat",
		Description:  "A cat",
		Tags:         []string{"pets", "cute"},
		UploadedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Size:         1024,
		Type:         "image/jpeg",
	}
}

type filePart struct {
	name        string
	contentType string
	content     []byte
}

func multipartBody(t *testing.T, file *filePart, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+file.name+`"`)
		if file.contentType != "" {
			h.Set("Content-Type", file.contentType)
		}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHandler_Health(t *testing.T) {
	handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{}, new(MockCatalog))

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandler_HandleList(t *testing.T) {
	catalog := new(MockCatalog)
	handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{}, catalog)

	catalog.On("List", mock.Anything, "sunset beach").
		Return([]gallery.ImageRecord{sampleRecord("id-1")}, nil)

	req := httptest.NewRequest("GET", "/images?search=sunset+beach", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result struct {
		Images []gallery.ImageRecord `json:"images"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.Len(t, result.Images, 1)
	assert.Equal(t, sampleRecord("id-1"), result.Images[0])

	catalog.AssertExpectations(t)
}

func TestHandler_HandleList_EmptyCatalog(t *testing.T) {
	catalog := new(MockCatalog)
	handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{}, catalog)

	catalog.On("List", mock.Anything, "").Return([]gallery.ImageRecord{}, nil)

	req := httptest.NewRequest("GET", "/images", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"images":[]}`, rec.Body.String())
}

func TestHandler_HandleList_PersistenceError(t *testing.T) {
	catalog := new(MockCatalog)
	handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{}, catalog)

	catalog.On("List", mock.Anything, "").Return(nil, gallery.ErrPersistence)

	req := httptest.NewRequest("GET", "/images", nil)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "persistence_error", decode(t, rec)["error"])
}

func TestHandler_HandleGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		catalog := new(MockCatalog)
		handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{}, catalog)
		catalog.On("Get", mock.Anything, "id-1").Return(sampleRecord("id-1"), nil)

		req := httptest.NewRequest("GET", "/images/id-1", nil)
		rec := httptest.NewRecorder()
		handler.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var result struct {
			Image gallery.ImageRecord `json:"image"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		assert.Equal(t, "id-1", result.Image.ID)
	})

	t.Run("not found", func(t *testing.T) {
		catalog := new(MockCatalog)
		handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{}, catalog)
		catalog.On("Get", mock.Anything, "missing").Return(gallery.ImageRecord{}, gallery.ErrNotFound)

		req := httptest.NewRequest("GET", "/images/missing", nil)
		rec := httptest.NewRecorder()
		handler.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "not_found", body["error"])
		assert.Equal(t, "Image not found", body["message"])
	})
}

func TestHandler_HandleUpload_Success(t *testing.T) {
	catalog := new(MockCatalog)
	handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{}, catalog)

	content := []byte("fake jpeg bytes")
	var received []byte
	body, contentType := multipartBody(t,
		&filePart{name: "cat.jpg", contentType: "image/jpeg", content: content},
		map[string]string{"title": "Cat", "description": "A cat", "tags": "pets, cute"},
	)

	catalog.On("Create", mock.Anything, gallery.CreateImage{
		OriginalName: "cat.jpg",
		ContentType:  "image/jpeg",
		Size:         int64(len(content)),
		Title:        "Cat",
		Description:  "A cat",
		Tags:         "pets, cute",
	}, mock.Anything).Run(func(args mock.Arguments) {
		received, _ = io.ReadAll(args.Get(2).(io.Reader))
	}).Return(sampleRecord("id-1"), nil)

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Success bool                `json:"success"`
		Image   gallery.ImageRecord `json:"image"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, "id-1", result.Image.ID)
	assert.Equal(t, content, received)

	catalog.AssertExpectations(t)
}

func TestHandler_HandleUpload_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		file     *filePart
		maxSize  int64
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing file",
			file:     nil,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_input",
		},
		{
			name:     "empty file",
			file:     &filePart{name: "empty.png", content: []byte{}},
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_input",
		},
		{
			name:     "over limit",
			file:     &filePart{name: "big.png", content: bytes.Repeat([]byte("x"), 2048)},
			maxSize:  1024,
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "too_large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := new(MockCatalog)
			handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{MaxUploadSize: tt.maxSize}, catalog)

			body, contentType := multipartBody(t, tt.file, map[string]string{"title": "x"})
			req := httptest.NewRequest("POST", "/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			handler.Router().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decode(t, rec)["error"])
			catalog.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_HandleUpload_NotMultipart(t *testing.T) {
	handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{}, new(MockCatalog))

	req := httptest.NewRequest("POST", "/upload", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_HandleUpload_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "invalid input", err: gallery.ErrInvalidInput, wantCode: http.StatusBadRequest, wantErr: "invalid_input"},
		{name: "storage", err: gallery.ErrStorage, wantCode: http.StatusInternalServerError, wantErr: "storage_error"},
		{name: "persistence", err: gallery.ErrPersistence, wantCode: http.StatusInternalServerError, wantErr: "persistence_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := new(MockCatalog)
			handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{}, catalog)
			catalog.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(gallery.ImageRecord{}, tt.err)

			body, contentType := multipartBody(t, &filePart{name: "a.png", content: []byte("png")}, nil)
			req := httptest.NewRequest("POST", "/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			handler.Router().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decode(t, rec)["error"])
		})
	}
}

func TestHandler_HandleDelete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		catalog := new(MockCatalog)
		handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{}, catalog)
		catalog.On("Delete", mock.Anything, "id-1").Return(nil)

		req := httptest.NewRequest("DELETE", "/images/id-1", nil)
		rec := httptest.NewRecorder()
		handler.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"message":"Image deleted successfully"}`, rec.Body.String())
		catalog.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		catalog := new(MockCatalog)
		handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{}, catalog)
		catalog.On("Delete", mock.Anything, "id-1").Return(gallery.ErrNotFound)

		req := httptest.NewRequest("DELETE", "/images/id-1", nil)
		rec := httptest.NewRecorder()
		handler.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("persistence error", func(t *testing.T) {
		catalog := new(MockCatalog)
		handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{}, catalog)
		catalog.On("Delete", mock.Anything, "id-1").Return(errors.Join(errors.New("delete"), gallery.ErrPersistence))

		req := httptest.NewRequest("DELETE", "/images/id-1", nil)
		rec := httptest.NewRecorder()
		handler.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandler_BasePath(t *testing.T) {
	catalog := new(MockCatalog)
	handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{BasePath: "/gallery/"}, catalog)
	catalog.On("List", mock.Anything, "").Return([]gallery.ImageRecord{}, nil)

	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/gallery/images", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/images", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{}, new(MockCatalog))

	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, httptest.NewRequest("PUT", "/images/id-1", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_CORS_Disabled(t *testing.T) {
	catalog := new(MockCatalog)
	handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{
		CORS: galleryhttp.CORSConfig{Enabled: false},
	}, catalog)
	catalog.On("List", mock.Anything, mock.Anything).Return([]gallery.ImageRecord{}, nil)

	req := httptest.NewRequest("GET", "/images", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_CORS_Enabled_Preflight(t *testing.T) {
	handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{
		CORS: galleryhttp.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         600,
		},
	}, new(MockCatalog))

	req := httptest.NewRequest("OPTIONS", "/upload", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func newFileHandler(t *testing.T, basePath string) (http.Handler, *filesystem.Store, string) {
	t.Helper()

	root, err := os.OpenRoot(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	baseURL := "http://gallery.test" + basePath
	presigner := gallery.NewPresigner("us-east-1", "s3", "AKIATEST", "testsecret")
	files, err := filesystem.NewFileStorage(root, baseURL, presigner)
	require.NoError(t, err)

	verifier := gallery.NewSignatureVerifier("us-east-1", "s3",
		keybackend.Keyring{"AKIATEST": "testsecret"})

	handler := galleryhttp.NewHandler(&galleryhttp.HandlerConfig{
		BasePath:     basePath,
		Files:        files,
		FileVerifier: verifier,
	}, new(MockCatalog))

	return handler.Router(), files, baseURL
}

func TestHandler_HandleFile(t *testing.T) {
	ctx := context.Background()

	for _, basePath := range []string{"", "/gallery"} {
		t.Run("base path "+basePath, func(t *testing.T) {
			router, files, _ := newFileHandler(t, basePath)
			require.NoError(t, files.Put(ctx, "1_a.png", strings.NewReader("png bytes"), 9, "image/png"))

			signed, err := files.SignedURL(ctx, "1_a.png", time.Hour)
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", signed, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
			assert.Equal(t, "png bytes", rec.Body.String())
		})
	}
}

func TestHandler_HandleFile_Rejected(t *testing.T) {
	ctx := context.Background()
	router, files, baseURL := newFileHandler(t, "")
	require.NoError(t, files.Put(ctx, "1_a.png", strings.NewReader("png"), 3, "image/png"))

	signed, err := files.SignedURL(ctx, "1_a.png", time.Hour)
	require.NoError(t, err)
	u, err := url.Parse(signed)
	require.NoError(t, err)

	t.Run("unsigned", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", baseURL+"/files/1_a.png", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("signature for another file", func(t *testing.T) {
		other := *u
		other.Path = "/files/2_b.png"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", other.String(), nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("head is not routed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("HEAD", signed, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("signed but missing", func(t *testing.T) {
		require.NoError(t, files.Remove(ctx, "1_a.png"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", signed, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
