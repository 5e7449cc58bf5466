// Package dialogcards implements the two-sided dialog card deck
// content handler (H5P.Dialogcards).
package dialogcards

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var library = book.LibraryRef{MachineName: "H5P.Dialogcards", MajorVersion: 1, MinorVersion: 9}

type card struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type payload struct {
	Title string `json:"title,omitempty"`
	Cards []card `json:"cards"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "dialogcards" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("dialogcards: %w", err)
	}
	if len(p.Cards) == 0 {
		return fmt.Errorf("dialogcards: at least one card is required")
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("dialogcards: %w", err)
	}

	cards := make([]map[string]any, len(p.Cards))
	for i, c := range p.Cards {
		cards[i] = map[string]any{"text": markup.EscapeHTML(c.Front), "answer": markup.EscapeHTML(c.Back)}
	}

	f := book.NewFragment("dialogcards", library)
	f.Params["dialogs"] = cards
	if p.Title != "" {
		f.Params["title"] = markup.EscapeHTML(p.Title)
	}
	return f, nil
}
