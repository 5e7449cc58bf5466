// Package crossword implements the crossword puzzle content handler
// (H5P.Crossword). Placement of words on the grid is left to the
// runtime library's own layout algorithm; this handler only supplies
// the word/clue pairs.
package crossword

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var library = book.LibraryRef{MachineName: "H5P.Crossword", MajorVersion: 0, MinorVersion: 5}

type clue struct {
	Answer string `json:"answer"`
	Clue   string `json:"clue"`
}

type payload struct {
	Clues []clue `json:"clues"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "crossword" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("crossword: %w", err)
	}
	if len(p.Clues) < 2 {
		return fmt.Errorf("crossword: at least 2 word/clue pairs are required")
	}
	for i, c := range p.Clues {
		if c.Answer == "" || c.Clue == "" {
			return fmt.Errorf("crossword: entry %d is missing an answer or clue", i)
		}
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("crossword: %w", err)
	}

	words := make([]map[string]any, len(p.Clues))
	for i, c := range p.Clues {
		words[i] = map[string]any{"answer": markup.EscapeHTML(c.Answer), "clue": markup.EscapeHTML(c.Clue)}
	}

	f := book.NewFragment("crossword", library)
	f.Params["words"] = words
	return f, nil
}
