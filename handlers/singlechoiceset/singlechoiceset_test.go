package singlechoiceset

import (
	"context"
	"testing"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ProcessBuildsChoices(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{
		"type": "singlechoiceset",
		"questions": [{"question": "Capital of France?", "answers": ["Paris", "Lyon", "Nice"]}]
	}`)))
	require.NoError(t, h.ValidateItem(item))

	frag, err := h.Process(context.Background(), &handler.Context{}, item)
	require.NoError(t, err)
	choices := frag.Params["choices"].([]map[string]any)
	assert.Equal(t, "Capital of France?", choices[0]["question"])
}

func TestHandler_ValidateRejectsNoAnswers(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"singlechoiceset","questions":[{"question":"q","answers":[]}]}`)))
	assert.Error(t, h.ValidateItem(item))
}
