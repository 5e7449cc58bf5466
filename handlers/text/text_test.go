package text

import (
	"context"
	"testing"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemWith(t *testing.T, jsonStr string) book.ContentItem {
	var ci book.ContentItem
	require.NoError(t, ci.UnmarshalJSON([]byte(jsonStr)))
	return ci
}

func TestHandler_ProcessBuildsTextFragment(t *testing.T) {
	h := New()
	item := itemWith(t, `{"type":"text","title":"Intro","text":"Plants convert light & CO2 into sugar"}`)

	require.NoError(t, h.ValidateItem(item))
	frag, err := h.Process(context.Background(), &handler.Context{}, item)
	require.NoError(t, err)
	assert.Equal(t, "Plants convert light &amp; CO2 into sugar", frag.Params["text"])
}

func TestHandler_ValidateRejectsMissingText(t *testing.T) {
	h := New()
	item := itemWith(t, `{"type":"text"}`)
	assert.Error(t, h.ValidateItem(item))
}
