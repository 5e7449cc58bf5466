package aidragtext

import (
	"context"
	"testing"

	"github.com/bookforge/bookc/pkg/ai"
	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	configured bool
	text       string
	err        error
}

func (f *fakeGenerator) Configured() bool { return f.configured }
func (f *fakeGenerator) Generate(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ai.Response{Text: f.text}, nil
}

func itemWith(t *testing.T, jsonStr string) book.ContentItem {
	var ci book.ContentItem
	require.NoError(t, ci.UnmarshalJSON([]byte(jsonStr)))
	return ci
}

func TestHandler_ProcessUsesGeneratedSentences(t *testing.T) {
	h := New()
	gen := &fakeGenerator{configured: true, text: "```json\n{\"sentences\": [{\"text\": \"Go uses {blank} for concurrency.\", \"blanks\": [\"goroutines\"]}]}\n```"}
	hctx := &handler.Context{Generator: gen, AIConfig: book.AIConfig{Tone: "educational", TargetAudience: "grade-6"}}

	item := itemWith(t, `{"type":"ai-dragtext","prompt":"concurrency"}`)
	frag, err := h.Process(context.Background(), hctx, item)
	require.NoError(t, err)
	assert.Equal(t, "Go uses *goroutines* for concurrency.", frag.Params["textField"])
}

func TestHandler_ProcessFallsBackWhenNotConfigured(t *testing.T) {
	h := New()
	hctx := &handler.Context{Generator: &fakeGenerator{configured: false}}

	item := itemWith(t, `{"type":"ai-dragtext","prompt":"photosynthesis"}`)
	frag, err := h.Process(context.Background(), hctx, item)
	require.NoError(t, err)
	assert.Contains(t, frag.Params["text"], "photosynthesis")
}

func TestHandler_ProcessFallsBackOnEmptyResponse(t *testing.T) {
	h := New()
	gen := &fakeGenerator{configured: true, text: ""}
	hctx := &handler.Context{Generator: gen}

	item := itemWith(t, `{"type":"ai-dragtext","prompt":"colors","sentenceCount":2,"blanksPerSentence":1,"difficulty":"easy"}`)
	frag, err := h.Process(context.Background(), hctx, item)
	require.NoError(t, err)
	assert.Contains(t, frag.Params["text"], "colors")
}

func TestHandler_ProcessFallsBackWhenBlankCountMismatched(t *testing.T) {
	h := New()
	gen := &fakeGenerator{configured: true, text: `{"sentences": [{"text": "Some sentence.", "blanks": ["missing"]}]}`}
	hctx := &handler.Context{Generator: gen}

	item := itemWith(t, `{"type":"ai-dragtext","prompt":"rivers"}`)
	frag, err := h.Process(context.Background(), hctx, item)
	require.NoError(t, err)
	assert.Contains(t, frag.Params["text"], "rivers")
}

func TestHandler_ValidateRejectsMissingPrompt(t *testing.T) {
	h := New()
	item := itemWith(t, `{"type":"ai-dragtext"}`)
	assert.Error(t, h.ValidateItem(item))
}

func TestHandler_ValidateRejectsUnknownDifficulty(t *testing.T) {
	h := New()
	item := itemWith(t, `{"type":"ai-dragtext","prompt":"x","difficulty":"extreme"}`)
	assert.Error(t, h.ValidateItem(item))
}

func TestEffectiveParams_DefaultsBlanksPerSentenceByDifficulty(t *testing.T) {
	_, blanks, _, _, difficulty := effectiveParams(payload{Prompt: "x", Difficulty: "hard"})
	assert.Equal(t, "hard", difficulty)
	assert.Equal(t, 3, blanks)
}
