// Package blanks implements the fill-in-the-blanks content handler.
// Like dragtext, it accepts either native H5P.Blanks asterisk syntax
// or a simplified text-plus-answers shape.
package blanks

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var library = book.LibraryRef{MachineName: "H5P.Blanks", MajorVersion: 1, MinorVersion: 14}

var blankPattern = regexp.MustCompile(`\*[^*]+\*`)

type payload struct {
	Text    string   `json:"text"`
	Answers []string `json:"answers,omitempty"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "blanks" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("blanks: %w", err)
	}
	if p.Text == "" {
		return fmt.Errorf("blanks: text is required")
	}
	if len(p.Answers) == 0 && !blankPattern.MatchString(p.Text) {
		return fmt.Errorf("blanks: text has no *blanked* answers and no answers list was given")
	}
	if len(p.Answers) > 0 {
		for i := range p.Answers {
			if !strings.Contains(p.Text, fmt.Sprintf("{{%d}}", i)) {
				return fmt.Errorf("blanks: text is missing placeholder {{%d}} for answers[%d]", i, i)
			}
		}
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("blanks: %w", err)
	}

	text := p.Text
	if len(p.Answers) > 0 {
		for i, ans := range p.Answers {
			placeholder := fmt.Sprintf("{{%d}}", i)
			if strings.Contains(text, placeholder) {
				text = strings.Replace(text, placeholder, "*"+ans+"*", 1)
			}
		}
	}

	f := book.NewFragment("blanks", library)
	f.Params["questions"] = []string{markup.EscapeHTML(text)}
	return f, nil
}
