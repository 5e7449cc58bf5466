package blanks

import (
	"context"
	"testing"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ProcessNativeSyntax(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"blanks","text":"Paris is the *capital* of France"}`)))
	require.NoError(t, h.ValidateItem(item))

	frag, err := h.Process(context.Background(), &handler.Context{}, item)
	require.NoError(t, err)
	questions := frag.Params["questions"].([]string)
	assert.Equal(t, "Paris is the *capital* of France", questions[0])
}

func TestHandler_ProcessSimplifiedPlaceholders(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"blanks","text":"Paris is the {{0}} of France","answers":["capital"]}`)))
	require.NoError(t, h.ValidateItem(item))

	frag, err := h.Process(context.Background(), &handler.Context{}, item)
	require.NoError(t, err)
	questions := frag.Params["questions"].([]string)
	assert.Equal(t, "Paris is the *capital* of France", questions[0])
}

func TestHandler_ValidateRejectsMissingPlaceholder(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"blanks","text":"no placeholder","answers":["x"]}`)))
	assert.Error(t, h.ValidateItem(item))
}
