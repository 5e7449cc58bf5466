// Package flashcards implements the flashcard-deck content handler
// (H5P.Flashcards), optionally attaching an image to each card.
package flashcards

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var library = book.LibraryRef{MachineName: "H5P.Flashcards", MajorVersion: 1, MinorVersion: 5}

type card struct {
	Front string `json:"front"`
	Back  string `json:"back"`
	Image string `json:"image,omitempty"`
}

type payload struct {
	Cards []card `json:"cards"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "flashcards" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("flashcards: %w", err)
	}
	if len(p.Cards) == 0 {
		return fmt.Errorf("flashcards: at least one card is required")
	}
	for i, c := range p.Cards {
		if c.Front == "" || c.Back == "" {
			return fmt.Errorf("flashcards: card %d is missing its front or back text", i)
		}
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("flashcards: %w", err)
	}

	f := book.NewFragment("flashcards", library)
	cards := make([]map[string]any, len(p.Cards))
	for i, c := range p.Cards {
		entry := map[string]any{"text": markup.EscapeHTML(c.Front), "answer": markup.EscapeHTML(c.Back)}
		if c.Image != "" {
			asset, err := hctx.Loader.Load(ctx, c.Image)
			if err != nil {
				return nil, fmt.Errorf("flashcards: card %d: %w", i, err)
			}
			path := hctx.Media.Register(book.MediaKindImage, asset.Bytes, asset.MIME, asset.Extension)
			entry["image"] = map[string]any{"path": path}
			f.ReferenceMedia(path)
		}
		cards[i] = entry
	}
	f.Params["cards"] = cards
	return f, nil
}
