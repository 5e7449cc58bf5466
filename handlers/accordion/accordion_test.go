package accordion

import (
	"context"
	"testing"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ProcessBuildsPanels(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"accordion","panels":[{"title":"Intro","html":"<p>hi</p>"}]}`)))
	require.NoError(t, h.ValidateItem(item))

	frag, err := h.Process(context.Background(), &handler.Context{}, item)
	require.NoError(t, err)
	panels := frag.Params["panels"].([]map[string]any)
	assert.Equal(t, "Intro", panels[0]["title"])
}

func TestHandler_ValidateRejectsNoPanels(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"accordion","panels":[]}`)))
	assert.Error(t, h.ValidateItem(item))
}
