// Package singlechoiceset implements the single-choice-per-question
// content handler (H5P.SingleChoiceSet), where each question offers
// several options and exactly one correct answer.
package singlechoiceset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var library = book.LibraryRef{MachineName: "H5P.SingleChoiceSet", MajorVersion: 1, MinorVersion: 11}

type question struct {
	Text    string   `json:"question"`
	Answers []string `json:"answers"`
}

type payload struct {
	Questions []question `json:"questions"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "singlechoiceset" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("singlechoiceset: %w", err)
	}
	if len(p.Questions) == 0 {
		return fmt.Errorf("singlechoiceset: at least one question is required")
	}
	for i, q := range p.Questions {
		if len(q.Answers) == 0 {
			return fmt.Errorf("singlechoiceset: question %d needs at least one correct answer, listed first", i)
		}
	}
	return nil
}

// Process builds the fragment. The H5P format encodes the correct
// answer as the first entry of each question's answer list.
func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("singlechoiceset: %w", err)
	}

	choices := make([]map[string]any, len(p.Questions))
	for i, q := range p.Questions {
		answers := make([]string, len(q.Answers))
		for j, a := range q.Answers {
			answers[j] = markup.EscapeHTML(a)
		}
		choices[i] = map[string]any{"question": markup.EscapeHTML(q.Text), "answers": answers}
	}

	f := book.NewFragment("singlechoiceset", library)
	f.Params["choices"] = choices
	return f, nil
}
