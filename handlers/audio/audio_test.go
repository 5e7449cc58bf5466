package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ProcessRegistersAudioMedia(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp3"), []byte("fake mp3"), 0644))

	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"audio","source":"clip.mp3"}`)))

	hctx := &handler.Context{Media: book.NewMediaManifest(), Loader: media.NewLoader(dir, nil)}
	frag, err := h.Process(context.Background(), hctx, item)
	require.NoError(t, err)
	assert.Equal(t, 1, hctx.Media.Count())
	files, ok := frag.Params["files"].([]any)
	require.True(t, ok)
	assert.Len(t, files, 1)
}
