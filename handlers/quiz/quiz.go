// Package quiz implements the multiple-choice question set handler,
// building an H5P.QuestionSet fragment whose children are
// H5P.MultiChoice fragments.
package quiz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var (
	setLibrary    = book.LibraryRef{MachineName: "H5P.QuestionSet", MajorVersion: 1, MinorVersion: 20}
	choiceLibrary = book.LibraryRef{MachineName: "H5P.MultiChoice", MajorVersion: 1, MinorVersion: 16}
)

type question struct {
	Text         string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

type payload struct {
	Questions []question `json:"questions"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "quiz" }

func (h *Handler) RequiredLibraries() []book.LibraryRef {
	return []book.LibraryRef{setLibrary, choiceLibrary}
}

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("quiz: %w", err)
	}
	if len(p.Questions) == 0 {
		return fmt.Errorf("quiz: at least one question is required")
	}
	for i, q := range p.Questions {
		if q.Text == "" {
			return fmt.Errorf("quiz: question %d is missing its text", i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("quiz: question %d needs at least 2 options", i)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("quiz: question %d has an out-of-range correctIndex", i)
		}
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("quiz: %w", err)
	}

	set := book.NewFragment("quiz", setLibrary)
	for _, q := range p.Questions {
		set.AddChild(buildChoice(q))
	}
	return set, nil
}

func buildChoice(q question) *book.Fragment {
	answers := make([]map[string]any, len(q.Options))
	for i, opt := range q.Options {
		answers[i] = map[string]any{
			"text":    markup.EscapeHTML(opt),
			"correct": i == q.CorrectIndex,
		}
	}

	f := book.NewFragment("quiz-question", choiceLibrary)
	f.Params["question"] = markup.EscapeHTML(q.Text)
	f.Params["answers"] = answers
	return f
}
