package quiz

import (
	"context"
	"testing"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ProcessBuildsQuestionSetWithChildren(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{
		"type": "quiz",
		"questions": [
			{"question": "2+2?", "options": ["3", "4", "5"], "correctIndex": 1}
		]
	}`)))
	require.NoError(t, h.ValidateItem(item))

	frag, err := h.Process(context.Background(), &handler.Context{}, item)
	require.NoError(t, err)
	require.Len(t, frag.Children, 1)

	answers := frag.Children[0].Params["answers"].([]map[string]any)
	require.Len(t, answers, 3)
	assert.Equal(t, true, answers[1]["correct"])
	assert.Equal(t, false, answers[0]["correct"])
}

func TestHandler_ValidateRejectsOutOfRangeCorrectIndex(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{
		"type": "quiz",
		"questions": [{"question": "q", "options": ["a", "b"], "correctIndex": 5}]
	}`)))
	assert.Error(t, h.ValidateItem(item))
}

func TestHandler_ValidateRejectsNoQuestions(t *testing.T) {
	h := New()
	var item book.ContentItem
	require.NoError(t, item.UnmarshalJSON([]byte(`{"type":"quiz","questions":[]}`)))
	assert.Error(t, h.ValidateItem(item))
}
