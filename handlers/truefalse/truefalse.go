// Package truefalse implements the true/false question content handler.
package truefalse

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var library = book.LibraryRef{MachineName: "H5P.TrueFalse", MajorVersion: 1, MinorVersion: 8}

type payload struct {
	Question string `json:"question"`
	Answer   bool   `json:"answer"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "truefalse" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("truefalse: %w", err)
	}
	if p.Question == "" {
		return fmt.Errorf("truefalse: question is required")
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("truefalse: %w", err)
	}

	f := book.NewFragment("truefalse", library)
	f.Params["question"] = markup.EscapeHTML(p.Question)
	f.Params["correct"] = p.Answer
	return f, nil
}
