// Package text implements the plain-text content handler.
package text

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var library = book.LibraryRef{MachineName: "H5P.AdvancedText", MajorVersion: 1, MinorVersion: 1}

type payload struct {
	Text string `json:"text"`
}

// Handler builds a fragment from a plain-text block, HTML-escaped at
// emission. No AI assistance applies to this type.
type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "text" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("text: %w", err)
	}
	if p.Text == "" {
		return fmt.Errorf("text: text is required")
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("text: %w", err)
	}

	f := book.NewFragment("text", library)
	f.Params["text"] = markup.EscapeHTML(p.Text)
	return f, nil
}
