package essay

import (
	"context"
	"testing"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ProcessBuildsFragment(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"essay","prompt":"Explain goroutines","requiredPhrases":["channel","scheduler"],"minimumLength":50}`)))
	require.NoError(t, h.ValidateItem(item))

	frag, err := h.Process(context.Background(), &handler.Context{}, item)
	require.NoError(t, err)
	keywords := frag.Params["keywords"].([]map[string]any)
	assert.Len(t, keywords, 2)
	assert.Equal(t, 50, frag.Params["minimumLength"])
}

func TestHandler_ValidateRejectsMissingPrompt(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"essay"}`)))
	assert.Error(t, h.ValidateItem(item))
}
