package image

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

func TestHandler_ProcessRegistersMediaAndBuildsFragment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("fake jpeg"), 0644))

	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"image","source":"cover.jpg","alt":"a cover"}`)))
	require.NoError(t, h.ValidateItem(item))

	hctx := &handler.Context{
		Media:  book.NewMediaManifest(),
		Loader: media.NewLoader(dir, nil),
	}

	frag, err := h.Process(context.Background(), hctx, item)
	require.NoError(t, err)
	assert.Equal(t, 1, hctx.Media.Count())
	assert.Equal(t, "a cover", frag.Params["alt"])
	assert.Len(t, frag.MediaRefs, 1)
}

func TestHandler_ValidateRejectsMissingSource(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"image"}`)))
	assert.Error(t, h.ValidateItem(item))
}
