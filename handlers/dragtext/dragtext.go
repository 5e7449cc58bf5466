// Package dragtext implements the drag-the-words content handler
// (H5P.DragText). It accepts either a simplified shape (sentences
// with {blank} markers plus an explicit blanks list) or H5P.DragText's
// native asterisk-delimited textField syntax directly, exclusively —
// never both on the same item.
package dragtext

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var library = book.LibraryRef{MachineName: "H5P.DragText", MajorVersion: 1, MinorVersion: 10}

const blankMarker = "{blank}"

type blankInput struct {
	Answer json.RawMessage `json:"answer"`
	Tip    string          `json:"tip,omitempty"`
}

type sentenceInput struct {
	Text   string       `json:"text"`
	Blanks []blankInput `json:"blanks"`
}

type payload struct {
	Sentences   []sentenceInput `json:"sentences,omitempty"`
	TextField   string          `json:"textField,omitempty"`
	Distractors json.RawMessage `json:"distractors,omitempty"`
	Description string          `json:"description,omitempty"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "dragtext" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("dragtext: %w", err)
	}

	hasSimplified := len(p.Sentences) > 0
	hasNative := p.TextField != ""
	if hasSimplified == hasNative {
		return fmt.Errorf("dragtext: exactly one of sentences or textField is required")
	}

	if hasSimplified {
		for i, s := range p.Sentences {
			if s.Text == "" {
				return fmt.Errorf("dragtext: sentence %d is missing text", i)
			}
			count := strings.Count(s.Text, blankMarker)
			if count == 0 {
				return fmt.Errorf("dragtext: sentence %d has no %s markers", i, blankMarker)
			}
			if count != len(s.Blanks) {
				return fmt.Errorf("dragtext: sentence %d has %d %s markers but %d blanks declared", i, count, blankMarker, len(s.Blanks))
			}
			for j, b := range s.Blanks {
				if _, err := parseAnswers(b.Answer); err != nil {
					return fmt.Errorf("dragtext: sentence %d blank %d: %w", i, j, err)
				}
			}
		}
	}

	if len(p.Distractors) > 0 {
		if _, err := parseDistractors(p.Distractors); err != nil {
			return fmt.Errorf("dragtext: %w", err)
		}
	}

	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("dragtext: %w", err)
	}

	textField := p.TextField
	if len(p.Sentences) > 0 {
		lines := make([]string, len(p.Sentences))
		for i, s := range p.Sentences {
			line, err := renderSentence(s)
			if err != nil {
				return nil, fmt.Errorf("dragtext: %w", err)
			}
			lines[i] = line
		}
		textField = strings.Join(lines, "\n")
	}

	f := book.NewFragment("dragtext", library)
	f.Params["textField"] = textField
	if len(p.Distractors) > 0 {
		distractors, err := parseDistractors(p.Distractors)
		if err != nil {
			return nil, fmt.Errorf("dragtext: %w", err)
		}
		f.Params["distractors"] = distractors
	}
	f.Params["taskDescription"] = markup.EscapeHTML(p.Description)
	f.Params["behaviour"] = map[string]any{
		"enableRetry":           true,
		"enableSolutionsButton": true,
		"instantFeedback":       false,
	}
	f.Params["l10n"] = defaultLocalization()
	return f, nil
}

// renderSentence rewrites one simplified sentence to native syntax,
// replacing each {blank} marker in order with *answer*, *a1/a2* for
// alternatives, or *answer:tip* when a tip is present.
func renderSentence(s sentenceInput) (string, error) {
	blanks := make([]Blank, len(s.Blanks))
	for i, b := range s.Blanks {
		answers, err := parseAnswers(b.Answer)
		if err != nil {
			return "", err
		}
		blanks[i] = Blank{Answer: answers, Tip: b.Tip}
	}
	return RenderSentence(s.Text, blanks)
}

// Blank is an answer (or set of alternative answers) plus an optional
// tip for one {blank} marker. It is exported so other handlers that
// need the identical simplified-to-native rewrite — the AI-assisted
// drag-text variant — can reuse RenderSentence instead of duplicating
// the marker syntax.
type Blank struct {
	Answer []string
	Tip    string
}

// RenderSentence rewrites every {blank} marker in text, in order,
// using blanks (one entry per marker) to produce H5P.DragText's native
// asterisk syntax: *answer*, *a1/a2* for alternatives, or
// *answer:tip* when a tip is given.
func RenderSentence(text string, blanks []Blank) (string, error) {
	count := strings.Count(text, blankMarker)
	if count != len(blanks) {
		return "", fmt.Errorf("%d %s markers but %d blanks given", count, blankMarker, len(blanks))
	}
	result := text
	for _, b := range blanks {
		if len(b.Answer) == 0 {
			return "", fmt.Errorf("blank answer must be non-empty")
		}
		marker := strings.Join(b.Answer, "/")
		if b.Tip != "" {
			marker += ":" + b.Tip
		}
		result = strings.Replace(result, blankMarker, "*"+marker+"*", 1)
	}
	return result, nil
}

// parseAnswers accepts either a single string or a list of strings
// (alternatives), rejecting empty strings and empty lists. The
// empty-string check is reported before any missing-field check so
// the error consistently mentions "non-empty" regardless of which
// shape was supplied.
func parseAnswers(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("answer is required and must be a non-empty string or list of strings")
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil, fmt.Errorf("answer must be non-empty")
		}
		return []string{single}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("answer must be a string or a list of strings")
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("answer list must be non-empty")
	}
	for _, a := range list {
		if a == "" {
			return nil, fmt.Errorf("answer must be non-empty")
		}
	}
	return list, nil
}

// parseDistractors accepts either a raw native string already using
// *marker* syntax (used verbatim) or a list of plain words, which are
// each wrapped in asterisks and joined with spaces.
func parseDistractors(raw json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return "", fmt.Errorf("distractors must be a string or a list of strings")
	}
	words := make([]string, len(list))
	for i, w := range list {
		if w == "" {
			return "", fmt.Errorf("distractor %d must be non-empty", i)
		}
		words[i] = "*" + w + "*"
	}
	return strings.Join(words, " "), nil
}

// defaultLocalization returns the UI string table H5P.DragText expects
// for its buttons, hints, and screen-reader text.
func defaultLocalization() map[string]any {
	return map[string]any{
		"checkAnswer":          "Check",
		"submitAnswer":         "Submit",
		"tryAgain":             "Retry",
		"showSolution":         "Show solution",
		"dropZoneIndex":        "Drop Zone @index.",
		"empty":                "Blank.",
		"contains":             "Drop Zone @index contains draggable @draggable.",
		"ariaDraggableIndex":   "@index of @count draggables.",
		"tipLabel":             "Show tip",
		"correctText":          "Correct!",
		"incorrectText":        "Incorrect!",
		"resetDropTitle":       "Reset drop",
		"resetDropDescription": "Are you sure you want to reset this drop zone?",
		"grabbed":              "Draggable is grabbed.",
		"cancelledDragging":    "Cancelled dragging.",
		"correctAnswer":        "Correct answer:",
		"feedbackHeader":       "Feedback",
		"scoreBarLabel":        "You got :num out of :total points",
		"a11yCheck":            "Check the answers.",
		"a11yShowSolution":     "Show the solution.",
		"a11yRetry":            "Retry the task.",
	}
}
