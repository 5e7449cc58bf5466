package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_LocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diagram.png")
	require.NoError(t, os.WriteFile(path, []byte("fake png bytes"), 0644))

	loader := NewLoader(dir, nil)
	asset, err := loader.Load(context.Background(), "diagram.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", asset.MIME)
	assert.Equal(t, "png", asset.Extension)
	assert.Equal(t, []byte("fake png bytes"), asset.Bytes)
}

func TestLoad_LocalFileMissing(t *testing.T) {
	loader := NewLoader(t.TempDir(), nil)
	_, err := loader.Load(context.Background(), "missing.png")
	require.Error(t, err)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestLoad_RemoteURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("fake jpeg bytes"))
	}))
	defer srv.Close()

	loader := NewLoader("", nil)
	asset, err := loader.Load(context.Background(), srv.URL+"/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", asset.MIME)
	assert.Equal(t, []byte("fake jpeg bytes"), asset.Bytes)
}

func TestLoad_RemoteURLNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	loader := NewLoader("", nil)
	_, err := loader.Load(context.Background(), srv.URL+"/missing.jpg")
	require.Error(t, err)
	var fetchErr *FetchError
	assert.ErrorAs(t, err, &fetchErr)
}
