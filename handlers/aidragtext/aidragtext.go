// Package aidragtext implements the AI-assisted drag-the-words
// handler: given a prompt, it asks the configured generator for
// sentences with {blank} markers and candidate answers, converts
// each to H5P.DragText's native asterisk syntax via the same rewrite
// the manual handler uses, and falls back to a plain text fragment
// carrying the prompt if generation fails or its output doesn't
// satisfy the handler's invariants.
package aidragtext

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bookforge/bookc/handlers/dragtext"
	"github.com/bookforge/bookc/pkg/ai"
	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var (
	dragTextLibrary = book.LibraryRef{MachineName: "H5P.DragText", MajorVersion: 1, MinorVersion: 10}
	fallbackLibrary = book.LibraryRef{MachineName: "H5P.AdvancedText", MajorVersion: 1, MinorVersion: 1}
)

// defaultBlanksPerDifficulty supplies blanksPerSentence when the item
// doesn't specify one explicitly.
var defaultBlanksPerDifficulty = map[string]int{
	"easy":   1,
	"medium": 2,
	"hard":   3,
}

type payload struct {
	Prompt             string `json:"prompt"`
	SentenceCount      int    `json:"sentenceCount,omitempty"`
	BlanksPerSentence  int    `json:"blanksPerSentence,omitempty"`
	IncludeDistractors *bool  `json:"includeDistractors,omitempty"`
	DistractorCount    int    `json:"distractorCount,omitempty"`
	Difficulty         string `json:"difficulty,omitempty"`
}

type generatedSentence struct {
	Text   string   `json:"text"`
	Blanks []string `json:"blanks"`
}

type generated struct {
	Sentences   []generatedSentence `json:"sentences"`
	Distractors []string            `json:"distractors"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "ai-dragtext" }

func (h *Handler) RequiredLibraries() []book.LibraryRef {
	return []book.LibraryRef{dragTextLibrary, fallbackLibrary}
}

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("ai-dragtext: %w", err)
	}
	if p.Prompt == "" {
		return fmt.Errorf("ai-dragtext: prompt is required")
	}
	if p.SentenceCount < 0 {
		return fmt.Errorf("ai-dragtext: sentenceCount must be positive")
	}
	if p.BlanksPerSentence < 0 {
		return fmt.Errorf("ai-dragtext: blanksPerSentence must be positive")
	}
	if p.DistractorCount < 0 {
		return fmt.Errorf("ai-dragtext: distractorCount must be positive")
	}
	if p.Difficulty != "" {
		if _, ok := defaultBlanksPerDifficulty[p.Difficulty]; !ok {
			return fmt.Errorf("ai-dragtext: difficulty must be one of easy, medium, hard")
		}
	}
	return nil
}

// effectiveParams resolves the defaults §4.6 names: sentenceCount 5,
// blanksPerSentence keyed by difficulty (itself defaulting to
// medium), includeDistractors true, distractorCount 3.
func effectiveParams(p payload) (sentenceCount, blanksPerSentence, distractorCount int, includeDistractors bool, difficulty string) {
	difficulty = p.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}
	sentenceCount = p.SentenceCount
	if sentenceCount <= 0 {
		sentenceCount = 5
	}
	blanksPerSentence = p.BlanksPerSentence
	if blanksPerSentence <= 0 {
		blanksPerSentence = defaultBlanksPerDifficulty[difficulty]
	}
	includeDistractors = true
	if p.IncludeDistractors != nil {
		includeDistractors = *p.IncludeDistractors
	}
	distractorCount = p.DistractorCount
	if distractorCount <= 0 {
		distractorCount = 3
	}
	return
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("ai-dragtext: %w", err)
	}
	sentenceCount, blanksPerSentence, distractorCount, includeDistractors, difficulty := effectiveParams(p)

	if hctx.Generator == nil || !hctx.Generator.Configured() {
		warnFallback(hctx, p.Prompt, "AI generator not configured")
		return fallback(p.Prompt), nil
	}

	instruction := fmt.Sprintf(
		"Write %d sentences (%s tone, for a %s audience, %s difficulty) about %q, %s. Mark exactly %d key term(s) per sentence with {blank} and list each marked term in order under \"blanks\".",
		sentenceCount, hctx.AIConfig.Tone, hctx.AIConfig.TargetAudience, difficulty, p.Prompt, hctx.AIConfig.Customization, blanksPerSentence,
	)
	if includeDistractors {
		instruction += fmt.Sprintf(" Also suggest %d plausible but incorrect distractor words related to the topic.", distractorCount)
	}
	prompt := ai.BuildPrompt(
		instruction,
		`{"sentences": [{"text": "string with {blank} markers", "blanks": ["string", ...]}, ...], "distractors": ["string", ...]}`,
		`{"sentences": [{"text": "{blank} generate ATP through cellular respiration.", "blanks": ["Mitochondria"]}], "distractors": ["ribosomes"]}`,
	)

	resp, err := hctx.Generator.Generate(ctx, &ai.Request{
		System: "You write concise, factual educational sentences for drag-the-words exercises.",
		Prompt: prompt,
	})
	if err != nil {
		warnFallback(hctx, p.Prompt, fmt.Sprintf("generation failed: %v", err))
		return fallback(p.Prompt), nil
	}

	raw, err := ai.SanitizeJSON(resp.Text)
	if err != nil {
		warnFallback(hctx, p.Prompt, fmt.Sprintf("response was not valid JSON: %v", err))
		return fallback(p.Prompt), nil
	}

	var g generated
	if err := json.Unmarshal(raw, &g); err != nil {
		warnFallback(hctx, p.Prompt, fmt.Sprintf("response did not match the expected shape: %v", err))
		return fallback(p.Prompt), nil
	}

	var lines []string
	for _, s := range g.Sentences {
		text := markup.EscapeHTML(markup.StripMarkup(s.Text))
		blanks := make([]dragtext.Blank, 0, len(s.Blanks))
		for _, b := range s.Blanks {
			clean := markup.EscapeHTML(markup.StripMarkup(b))
			if clean == "" {
				continue
			}
			blanks = append(blanks, dragtext.Blank{Answer: []string{clean}})
		}
		line, err := dragtext.RenderSentence(text, blanks)
		if err != nil {
			warn(hctx, fmt.Sprintf("ai-dragtext: discarding sentence for prompt %q: %v", p.Prompt, err))
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		warnFallback(hctx, p.Prompt, "no usable sentences in AI response")
		return fallback(p.Prompt), nil
	}

	f := book.NewFragment("ai-dragtext", dragTextLibrary)
	f.Params["textField"] = strings.Join(lines, "\n")
	if includeDistractors && len(g.Distractors) > 0 {
		words := make([]string, 0, len(g.Distractors))
		for _, d := range g.Distractors {
			clean := markup.EscapeHTML(markup.StripMarkup(d))
			if clean == "" {
				continue
			}
			words = append(words, "*"+clean+"*")
		}
		if len(words) > 0 {
			f.Params["distractors"] = strings.Join(words, " ")
		}
	}
	f.Params["taskDescription"] = markup.EscapeHTML(p.Prompt)
	f.Params["behaviour"] = map[string]any{
		"enableRetry":           true,
		"enableSolutionsButton": true,
		"instantFeedback":       false,
	}
	return f, nil
}

func fallback(prompt string) *book.Fragment {
	f := book.NewFragment("ai-dragtext", fallbackLibrary)
	f.Params["text"] = markup.EscapeHTML(fmt.Sprintf("Unable to generate a drag-the-words exercise for %q.", prompt))
	return f
}

func warnFallback(hctx *handler.Context, prompt, reason string) {
	warn(hctx, fmt.Sprintf("ai-dragtext: falling back for prompt %q: %s", prompt, reason))
}

func warn(hctx *handler.Context, msg string) {
	if hctx == nil || hctx.Logger == nil {
		return
	}
	hctx.Logger.Warn().Msg(msg)
}
