package dialogcards

import (
	"context"
	"testing"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ProcessBuildsDialogs(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"dialogcards","title":"Vocab","cards":[{"front":"Hund","back":"Dog"}]}`)))
	require.NoError(t, h.ValidateItem(item))

	frag, err := h.Process(context.Background(), &handler.Context{}, item)
	require.NoError(t, err)
	assert.Equal(t, "Vocab", frag.Params["title"])
	dialogs := frag.Params["dialogs"].([]map[string]any)
	assert.Equal(t, "Dog", dialogs[0]["answer"])
}

func TestHandler_ValidateRejectsNoCards(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"dialogcards","cards":[]}`)))
	assert.Error(t, h.ValidateItem(item))
}
