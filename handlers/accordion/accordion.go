// Package accordion implements the collapsible-panels content handler.
package accordion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var library = book.LibraryRef{MachineName: "H5P.Accordion", MajorVersion: 1, MinorVersion: 0}

type panel struct {
	Title string `json:"title"`
	HTML  string `json:"html"`
}

type payload struct {
	Panels []panel `json:"panels"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "accordion" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("accordion: %w", err)
	}
	if len(p.Panels) == 0 {
		return fmt.Errorf("accordion: at least one panel is required")
	}
	for i, panel := range p.Panels {
		if panel.Title == "" {
			return fmt.Errorf("accordion: panel %d is missing a title", i)
		}
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("accordion: %w", err)
	}

	panels := make([]map[string]any, len(p.Panels))
	for i, panel := range p.Panels {
		// title is plain user text and is escaped at emission; html is
		// user-supplied markup passed through verbatim.
		panels[i] = map[string]any{"title": markup.EscapeHTML(panel.Title), "content": panel.HTML}
	}

	f := book.NewFragment("accordion", library)
	f.Params["panels"] = panels
	return f, nil
}
