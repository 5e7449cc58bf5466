// Package essay implements the open-ended essay content handler
// (H5P.Essay), which grades a free-text response against a set of
// required keywords.
package essay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var library = book.LibraryRef{MachineName: "H5P.Essay", MajorVersion: 1, MinorVersion: 5}

type payload struct {
	Prompt          string   `json:"prompt"`
	RequiredPhrases []string `json:"requiredPhrases,omitempty"`
	MinimumLength   int      `json:"minimumLength,omitempty"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "essay" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("essay: %w", err)
	}
	if p.Prompt == "" {
		return fmt.Errorf("essay: prompt is required")
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("essay: %w", err)
	}

	f := book.NewFragment("essay", library)
	f.Params["taskDescription"] = markup.EscapeHTML(p.Prompt)
	if len(p.RequiredPhrases) > 0 {
		keywords := make([]map[string]any, len(p.RequiredPhrases))
		for i, phrase := range p.RequiredPhrases {
			keywords[i] = map[string]any{"keyword": markup.EscapeHTML(phrase)}
		}
		f.Params["keywords"] = keywords
	}
	if p.MinimumLength > 0 {
		f.Params["minimumLength"] = p.MinimumLength
	}
	return f, nil
}
