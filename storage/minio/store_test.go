package minio_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/storage/minio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testAccessKey = "minioadmin"
	testSecretKey = "minioadmin"
)

var (
	testEndpoint     string
	testEndpointErr  error
	testEndpointOnce sync.Once
)

func getMinioEndpoint(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping minio container test in short mode")
	}

	testEndpointOnce.Do(func() {
		ctx := context.Background()

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "minio/minio:latest",
				ExposedPorts: []string{"9000/tcp"},
				Cmd:          []string{"server", "/data"},
				Env: map[string]string{
					"MINIO_ROOT_USER":     testAccessKey,
					"MINIO_ROOT_PASSWORD": testSecretKey,
				},
				WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
			},
			Started: true,
		})
		if err != nil {
			testEndpointErr = fmt.Errorf("start minio container: %w", err)
			return
		}

		testEndpoint, testEndpointErr = container.PortEndpoint(ctx, "9000/tcp", "")
	})

	require.NoError(t, testEndpointErr)
	return testEndpoint
}

func newStore(t *testing.T, bucket string) *minio.Store {
	t.Helper()

	store, err := minio.New(minio.Config{
		Endpoint:  getMinioEndpoint(t),
		AccessKey: testAccessKey,
		SecretKey: testSecretKey,
		Region:    "us-east-1",
	}, bucket)
	require.NoError(t, err)
	return store
}

func TestNew_Validation(t *testing.T) {
	_, err := minio.New(minio.Config{}, "bucket")
	assert.Error(t, err)

	_, err = minio.New(minio.Config{Endpoint: "localhost:9000"}, "")
	assert.Error(t, err)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, "gallery-roundtrip")

	require.NoError(t, store.EnsureReady(ctx))
	require.NoError(t, store.EnsureReady(ctx), "second call should be a no-op")

	content := "png bytes"
	require.NoError(t, store.Put(ctx, "1700000000000_a.png", strings.NewReader(content), int64(len(content)), "image/png"))

	signed, err := store.SignedURL(ctx, "1700000000000_a.png", gallery.DefaultSignedURLTTL)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "604800", u.Query().Get("X-Amz-Expires"), "ttl should be capped at 7 days")

	resp, err := http.Get(signed)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, content, string(body))

	blobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, "1700000000000_a.png", blobs[0].Key)
	assert.Equal(t, int64(len(content)), blobs[0].Size)
	assert.WithinDuration(t, time.Now(), blobs[0].LastModified, time.Minute)

	require.NoError(t, store.Remove(ctx, "1700000000000_a.png"))
	blobs, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestStore_ConcurrentEnsureReady(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, "gallery-race")

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.EnsureReady(ctx)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
