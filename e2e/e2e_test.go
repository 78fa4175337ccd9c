package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/clientcli"
)

// TestE2E_Catalog_Memory tests the full catalog lifecycle with the in-memory store.
func TestE2E_Catalog_Memory(t *testing.T) {
	endpoint, cleanup := startServer(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "memory",
		StoragePath: t.TempDir(),
	})
	defer cleanup()

	runCatalogTests(t, endpoint)
}

// TestE2E_Catalog_SQLite tests the full catalog lifecycle using SQLite.
func TestE2E_Catalog_SQLite(t *testing.T) {
	endpoint, cleanup := startServer(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "gallery.db"),
		StoragePath: t.TempDir(),
	})
	defer cleanup()

	runCatalogTests(t, endpoint)
}

// TestE2E_Catalog_Badger tests the full catalog lifecycle using Badger.
func TestE2E_Catalog_Badger(t *testing.T) {
	endpoint, cleanup := startServer(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "badger",
		DBDSN:       filepath.Join(t.TempDir(), "badger"),
		StoragePath: t.TempDir(),
	})
	defer cleanup()

	runCatalogTests(t, endpoint)
}

// TestE2E_Catalog_Postgres tests the full catalog lifecycle using PostgreSQL.
func TestE2E_Catalog_Postgres(t *testing.T) {
	dsn := getSharedPostgresDatabase(t)

	endpoint, cleanup := startServer(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "postgres",
		DBDSN:       dsn,
		StoragePath: t.TempDir(),
	})
	defer cleanup()

	runCatalogTests(t, endpoint)
}

// TestE2E_Catalog_BasePath mounts every route under a prefix.
func TestE2E_Catalog_BasePath(t *testing.T) {
	port := getOpenPort(t)
	endpoint, cleanup := startServer(t, ServerConfig{
		Port:        port,
		BasePath:    "/gallery",
		StoragePath: t.TempDir(),
	})
	defer cleanup()

	runCatalogTests(t, endpoint)

	resp, err := http.Get("http://localhost:" + portString(port) + "/images")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// runCatalogTests contains the shared lifecycle test logic.
func runCatalogTests(t *testing.T, endpoint string) {
	t.Helper()

	ctx := context.Background()
	client := newClient(t, endpoint)

	var sunset, forest gallery.ImageRecord

	t.Run("list is empty", func(t *testing.T) {
		result, err := client.List(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, result.Images)
	})

	t.Run("upload with metadata", func(t *testing.T) {
		results, err := client.Upload(ctx, clientcli.UploadOptions{
			LocalPath:   writeImage(t, "sunset.png", "png-bytes"),
			Title:       "Sunset",
			Description: "Evening at the beach",
			Tags:        " beach, summer ,,",
		})
		require.NoError(t, err)
		require.Len(t, results, 1)

		sunset = results[0].Image
		assert.NotEmpty(t, sunset.ID)
		assert.Equal(t, "Sunset", sunset.Title)
		assert.Equal(t, "sunset.png", sunset.OriginalName)
		assert.Equal(t, []string{"beach", "summer"}, sunset.Tags)
		assert.Equal(t, int64(9), sunset.Size)
		assert.Equal(t, "image/png", sunset.Type)
		assert.True(t, strings.HasSuffix(sunset.Filename, ".png"), sunset.Filename)
		assert.Contains(t, sunset.URL, "X-Amz-Signature=")
	})

	// Upload times are millisecond precise; keep the newest-first order deterministic.
	time.Sleep(5 * time.Millisecond)

	t.Run("upload without title uses file name", func(t *testing.T) {
		results, err := client.Upload(ctx, clientcli.UploadOptions{
			LocalPath: writeImage(t, "forest.jpg", "jpeg-bytes"),
			Tags:      "nature",
		})
		require.NoError(t, err)
		require.Len(t, results, 1)

		forest = results[0].Image
		assert.Equal(t, "forest.jpg", forest.Title)
		assert.Equal(t, "image/jpeg", forest.Type)
		assert.Empty(t, forest.Description)
	})

	t.Run("list is newest first", func(t *testing.T) {
		result, err := client.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, result.Images, 2)
		assert.Equal(t, forest.ID, result.Images[0].ID)
		assert.Equal(t, sunset.ID, result.Images[1].ID)
	})

	t.Run("search matches title description and tags", func(t *testing.T) {
		cases := map[string][]string{
			"SUNSET":  {sunset.ID},
			"beach":   {sunset.ID},
			"natu":    {forest.ID},
			"missing": {},
		}
		for query, want := range cases {
			result, err := client.List(ctx, query)
			require.NoError(t, err, query)

			got := []string{}
			for _, img := range result.Images {
				got = append(got, img.ID)
			}
			assert.Equal(t, want, got, query)
		}
	})

	t.Run("get returns record", func(t *testing.T) {
		image, err := client.Get(ctx, sunset.ID)
		require.NoError(t, err)
		assert.Equal(t, sunset.Filename, image.Filename)
		assert.Equal(t, sunset.Tags, image.Tags)
	})

	t.Run("signed url serves the bytes", func(t *testing.T) {
		result, body, err := client.Download(ctx, clientcli.DownloadOptions{ID: sunset.ID, LocalPath: "-"})
		require.NoError(t, err)
		defer func() { _ = body.Close() }()

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(data))
		assert.Equal(t, "image/png", result.ContentType)
	})

	t.Run("tampered signed url is rejected", func(t *testing.T) {
		u, err := url.Parse(sunset.URL)
		require.NoError(t, err)

		q := u.Query()
		q.Set("X-Amz-Signature", strings.Repeat("0", 64))
		u.RawQuery = q.Encode()

		resp, err := http.Get(u.String())
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("delete removes record and blob", func(t *testing.T) {
		results, err := client.Delete(ctx, []string{sunset.ID})
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.NoError(t, results[0].Err)

		_, err = client.Get(ctx, sunset.ID)
		assert.ErrorIs(t, err, clientcli.ErrNotFound)

		resp, err := http.Get(sunset.URL)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("second delete is not found", func(t *testing.T) {
		results, err := client.Delete(ctx, []string{sunset.ID})
		require.NoError(t, err)
		assert.ErrorIs(t, results[0].Err, clientcli.ErrNotFound)
	})

	t.Run("remaining image still listed", func(t *testing.T) {
		result, err := client.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, result.Images, 1)
		assert.Equal(t, forest.ID, result.Images[0].ID)
	})
}

// TestE2E_UploadRejections checks the size limit and the missing file case.
func TestE2E_UploadRejections(t *testing.T) {
	endpoint, cleanup := startServer(t, ServerConfig{
		Port:          getOpenPort(t),
		StoragePath:   t.TempDir(),
		MaxUploadSize: 1024,
	})
	defer cleanup()

	ctx := context.Background()
	client := newClient(t, endpoint)

	t.Run("too large", func(t *testing.T) {
		_, err := client.Upload(ctx, clientcli.UploadOptions{
			LocalPath: writeImage(t, "big.png", strings.Repeat("x", 4096)),
		})
		assert.ErrorIs(t, err, clientcli.ErrTooLarge)
	})

	t.Run("no file", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("title", "nothing attached"))
		require.NoError(t, mw.Close())

		resp, err := http.Post(endpoint+"/upload", mw.FormDataContentType(), &body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
		assert.Equal(t, "No file provided", errResp.Message)
	})

	t.Run("nothing was stored", func(t *testing.T) {
		result, err := client.List(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, result.Images)
	})
}

// TestE2E_OfflineCommands drives add, list and remove against a SQLite catalog
// and checks the server sees the same data.
func TestE2E_OfflineCommands(t *testing.T) {
	cfg := ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "gallery.db"),
		StoragePath: t.TempDir(),
	}
	configPath := createConfigFile(t, cfg)

	out := runGallery(t, configPath, "add", "-q", "--title", "Harbour", "--tags", "sea,boats", writeImage(t, "harbour.webp", "webp-bytes"))
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	var listed struct {
		Images []gallery.ImageRecord `json:"images"`
	}
	require.NoError(t, json.Unmarshal([]byte(runGallery(t, configPath, "list", "--json", "--search", "boats")), &listed))
	require.Len(t, listed.Images, 1)
	assert.Equal(t, id, listed.Images[0].ID)
	assert.Equal(t, "Harbour", listed.Images[0].Title)

	t.Run("server serves added image", func(t *testing.T) {
		endpoint, cleanup := startServer(t, cfg)
		defer cleanup()

		client := newClient(t, endpoint)
		_, body, err := client.Download(context.Background(), clientcli.DownloadOptions{ID: id, LocalPath: "-"})
		require.NoError(t, err)
		defer func() { _ = body.Close() }()

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "webp-bytes", string(data))
	})

	runGallery(t, configPath, "remove", "-q", id)

	require.NoError(t, json.Unmarshal([]byte(runGallery(t, configPath, "list", "--json")), &listed))
	assert.Empty(t, listed.Images)
}

// TestE2E_Sweep removes old unreferenced blobs and keeps everything else.
func TestE2E_Sweep(t *testing.T) {
	storageDir := t.TempDir()
	configPath := createConfigFile(t, ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(t.TempDir(), "gallery.db"),
		StoragePath: storageDir,
	})

	id := strings.TrimSpace(runGallery(t, configPath, "add", "-q", writeImage(t, "kept.jpg", "kept")))
	require.NotEmpty(t, id)

	oldName := "1000_3f2b8c1e-9d4a-4b6e-8f1a-2c3d4e5f6a7b.jpg"
	freshName := "2000_7c9e6679-7425-40de-944b-e07fc1f90ae7.jpg"
	old := filepath.Join(storageDir, oldName)
	fresh := filepath.Join(storageDir, freshName)
	foreign := filepath.Join(storageDir, "notes.txt")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0o600))
	require.NoError(t, os.WriteFile(fresh, []byte("fresh"), 0o600))
	require.NoError(t, os.WriteFile(foreign, []byte("not ours"), 0o600))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(foreign, past, past))

	t.Run("dry run reports without removing", func(t *testing.T) {
		out := runGallery(t, configPath, "sweep", "--dry-run")
		assert.Contains(t, out, oldName)
		assert.NotContains(t, out, freshName)
		assert.NotContains(t, out, "notes.txt")
		assert.FileExists(t, old)
	})

	t.Run("sweep removes old orphan only", func(t *testing.T) {
		runGallery(t, configPath, "sweep", "--older-than", "1h")
		assert.NoFileExists(t, old)
		assert.FileExists(t, fresh)
		assert.FileExists(t, foreign)
	})

	var listed struct {
		Images []gallery.ImageRecord `json:"images"`
	}
	require.NoError(t, json.Unmarshal([]byte(runGallery(t, configPath, "list", "--json")), &listed))
	require.Len(t, listed.Images, 1)
	assert.FileExists(t, filepath.Join(storageDir, listed.Images[0].Filename))
}

func portString(port int) string {
	return strconv.Itoa(port)
}
