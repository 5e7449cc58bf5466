// Package aiquiz generates multiple-choice questions for a topic via
// the configured AI generator, reusing the same H5P.QuestionSet /
// H5P.MultiChoice shape as the manual quiz handler. Falls back to a
// single trivially-true question when generation is unavailable or
// its output doesn't satisfy the invariant that exactly one option is
// correct.
package aiquiz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookforge/bookc/pkg/ai"
	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var (
	setLibrary    = book.LibraryRef{MachineName: "H5P.QuestionSet", MajorVersion: 1, MinorVersion: 20}
	choiceLibrary = book.LibraryRef{MachineName: "H5P.MultiChoice", MajorVersion: 1, MinorVersion: 16}
)

type payload struct {
	Topic         string `json:"topic"`
	QuestionCount int    `json:"questionCount,omitempty"`
}

type question struct {
	Text         string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

type generated struct {
	Questions []question `json:"questions"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "ai-quiz" }

func (h *Handler) RequiredLibraries() []book.LibraryRef {
	return []book.LibraryRef{setLibrary, choiceLibrary}
}

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("ai-quiz: %w", err)
	}
	if p.Topic == "" {
		return fmt.Errorf("ai-quiz: topic is required")
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("ai-quiz: %w", err)
	}
	count := p.QuestionCount
	if count <= 0 {
		count = 3
	}

	if hctx.Generator == nil || !hctx.Generator.Configured() {
		warnFallback(hctx, p.Topic, "AI generator not configured")
		return fallback(p.Topic), nil
	}

	instruction := fmt.Sprintf(
		"Write %d multiple-choice questions about %q for a %s audience, %s tone. Each question needs 3-4 options with exactly one correct answer.",
		count, p.Topic, hctx.AIConfig.TargetAudience, hctx.AIConfig.Tone,
	)
	prompt := ai.BuildPrompt(
		instruction,
		`{"questions": [{"question": "string", "options": ["string", ...], "correctIndex": 0}, ...]}`,
		`{"questions": [{"question": "What keyword starts a goroutine?", "options": ["go", "async", "spawn"], "correctIndex": 0}]}`,
	)

	resp, err := hctx.Generator.Generate(ctx, &ai.Request{
		System: "You write multiple-choice quiz questions for educational content.",
		Prompt: prompt,
	})
	if err != nil {
		warnFallback(hctx, p.Topic, fmt.Sprintf("generation failed: %v", err))
		return fallback(p.Topic), nil
	}

	raw, err := ai.SanitizeJSON(resp.Text)
	if err != nil {
		warnFallback(hctx, p.Topic, fmt.Sprintf("response was not valid JSON: %v", err))
		return fallback(p.Topic), nil
	}

	var g generated
	if err := json.Unmarshal(raw, &g); err != nil {
		warnFallback(hctx, p.Topic, fmt.Sprintf("response did not match the expected shape: %v", err))
		return fallback(p.Topic), nil
	}

	set := book.NewFragment("ai-quiz", setLibrary)
	valid := 0
	for _, q := range g.Questions {
		q.Text = markup.StripMarkup(q.Text)
		for i, opt := range q.Options {
			q.Options[i] = markup.StripMarkup(opt)
		}
		if q.Text == "" || len(q.Options) < 2 || q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			warn(hctx, fmt.Sprintf("ai-quiz: discarding malformed question for topic %q", p.Topic))
			continue
		}
		set.AddChild(buildChoice(q))
		valid++
	}
	if valid == 0 {
		warnFallback(hctx, p.Topic, "no usable questions in AI response")
		return fallback(p.Topic), nil
	}

	return set, nil
}

func buildChoice(q question) *book.Fragment {
	answers := make([]map[string]any, len(q.Options))
	for i, opt := range q.Options {
		answers[i] = map[string]any{"text": markup.EscapeHTML(opt), "correct": i == q.CorrectIndex}
	}
	f := book.NewFragment("ai-quiz-question", choiceLibrary)
	f.Params["question"] = markup.EscapeHTML(q.Text)
	f.Params["answers"] = answers
	return f
}

func fallback(topic string) *book.Fragment {
	set := book.NewFragment("ai-quiz", setLibrary)
	choice := book.NewFragment("ai-quiz-question", choiceLibrary)
	choice.Params["question"] = markup.EscapeHTML(fmt.Sprintf("Did you just read about %s?", topic))
	choice.Params["answers"] = []map[string]any{
		{"text": "Yes", "correct": true},
		{"text": "No", "correct": false},
	}
	set.AddChild(choice)
	return set
}

func warnFallback(hctx *handler.Context, topic, reason string) {
	warn(hctx, fmt.Sprintf("ai-quiz: falling back for topic %q: %s", topic, reason))
}

func warn(hctx *handler.Context, msg string) {
	if hctx == nil || hctx.Logger == nil {
		return
	}
	hctx.Logger.Warn().Msg(msg)
}
