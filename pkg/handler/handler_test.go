package handler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	contentType string
	libs        []book.LibraryRef
	validateErr error
	process     func(item book.ContentItem) (*book.Fragment, error)
}

func (s *stubHandler) ContentType() string                   { return s.contentType }
func (s *stubHandler) RequiredLibraries() []book.LibraryRef   { return s.libs }
func (s *stubHandler) ValidateItem(item book.ContentItem) error { return s.validateErr }
func (s *stubHandler) Process(ctx context.Context, hctx *Context, item book.ContentItem) (*book.Fragment, error) {
	return s.process(item)
}

func item(t string) book.ContentItem {
	data, _ := json.Marshal(map[string]string{"type": t})
	var ci book.ContentItem
	_ = ci.UnmarshalJSON(data)
	return ci
}

func TestRegistry_DispatchRoutesByType(t *testing.T) {
	reg := NewRegistry()
	textLib := book.LibraryRef{MachineName: "H5P.AdvancedText", MajorVersion: 1, MinorVersion: 1}
	h := &stubHandler{
		contentType: "text",
		libs:        []book.LibraryRef{textLib},
		process: func(it book.ContentItem) (*book.Fragment, error) {
			return book.NewFragment("text", textLib), nil
		},
	}
	require.NoError(t, reg.Register(h))

	frag, err := reg.Dispatch(context.Background(), &Context{}, item("text"))
	require.NoError(t, err)
	assert.Equal(t, "text", frag.Type)
}

func TestRegistry_DispatchUnknownType(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Dispatch(context.Background(), &Context{}, item("mystery"))
	require.Error(t, err)
	var noHandler *NoHandlerError
	assert.ErrorAs(t, err, &noHandler)
}

func TestRegistry_DispatchInvalidItem(t *testing.T) {
	reg := NewRegistry()
	h := &stubHandler{contentType: "quiz", validateErr: assert.AnError}
	require.NoError(t, reg.Register(h))

	_, err := reg.Dispatch(context.Background(), &Context{}, item("quiz"))
	require.Error(t, err)
	var invalid *InvalidContentError
	assert.ErrorAs(t, err, &invalid)
}

func TestRegistry_RegisterDuplicateFails(t *testing.T) {
	reg := NewRegistry()
	h := &stubHandler{contentType: "text"}
	require.NoError(t, reg.Register(h))
	assert.Error(t, reg.Register(h))
}

func TestRegistry_RegisterWithAliases(t *testing.T) {
	reg := NewRegistry()
	h := &stubHandler{contentType: "ai-quiz"}
	require.NoError(t, reg.Register(h, "quiz"))

	_, ok := reg.Get("ai-quiz")
	assert.True(t, ok)
	_, ok = reg.Get("quiz")
	assert.True(t, ok)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_RequiredLibrariesDeduplicatesByHandler(t *testing.T) {
	reg := NewRegistry()
	lib := book.LibraryRef{MachineName: "H5P.QuestionSet", MajorVersion: 1, MinorVersion: 20}
	h := &stubHandler{contentType: "quiz", libs: []book.LibraryRef{lib}}
	require.NoError(t, reg.Register(h, "ai-quiz"))

	libs := reg.RequiredLibraries()
	assert.Len(t, libs, 1)
}
