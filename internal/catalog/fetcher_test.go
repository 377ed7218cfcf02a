package catalog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthscan-app/healthscan-server/internal/config"
)

func TestFetcher_EnsureCatalog_Downloads(t *testing.T) {
	var gets int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		if r.Method == http.MethodGet {
			atomic.AddInt32(&gets, 1)
			w.Write([]byte(testCatalogJSON))
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "products.json")
	metadataPath := filepath.Join(dir, "catalog-metadata.json")

	f := NewFetcher(srv.URL, catalogPath, metadataPath, config.NewTestLogger(io.Discard, "ERROR"))
	require.NoError(t, f.EnsureCatalog(context.Background()))

	data, err := os.ReadFile(catalogPath)
	require.NoError(t, err)
	assert.Equal(t, testCatalogJSON, string(data))
	assert.EqualValues(t, 1, atomic.LoadInt32(&gets))

	// Metadata sidecar was written.
	meta, err := f.loadMetadata()
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, meta.ETag)
	assert.NotEmpty(t, meta.SHA256)
}

func TestFetcher_EnsureCatalog_SkipsWhenUpToDate(t *testing.T) {
	var gets int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		if r.Method == http.MethodGet {
			atomic.AddInt32(&gets, 1)
			w.Write([]byte(testCatalogJSON))
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(srv.URL, filepath.Join(dir, "products.json"), filepath.Join(dir, "meta.json"), config.NewTestLogger(io.Discard, "ERROR"))

	require.NoError(t, f.EnsureCatalog(context.Background()))
	require.NoError(t, f.EnsureCatalog(context.Background()))

	// The second call should be satisfied by the ETag comparison.
	assert.EqualValues(t, 1, atomic.LoadInt32(&gets))
}

func TestFetcher_EnsureCatalog_KeepsLocalCopyOnRemoteFailure(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "products.json")
	metadataPath := filepath.Join(dir, "meta.json")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testCatalogJSON), 0644))
	require.NoError(t, os.WriteFile(metadataPath, []byte(`{"etag":"\"v1\"","size":10}`), 0644))

	f := NewFetcher("http://127.0.0.1:0/unreachable", catalogPath, metadataPath, config.NewTestLogger(io.Discard, "ERROR"))

	// Freshness check fails but the existing catalog keeps serving.
	assert.NoError(t, f.EnsureCatalog(context.Background()))
}

func TestFetcher_EnsureCatalog_DownloadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(srv.URL, filepath.Join(dir, "products.json"), filepath.Join(dir, "meta.json"), config.NewTestLogger(io.Discard, "ERROR"))

	assert.Error(t, f.EnsureCatalog(context.Background()))
}
