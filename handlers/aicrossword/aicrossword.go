// Package aicrossword generates crossword word/clue pairs for a topic
// via the configured AI generator, falling back to a fixed two-word
// list (TOPIC, REVIEW) whose first clue names the topic when
// generation is unavailable or its output is unusable.
package aicrossword

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bookforge/bookc/pkg/ai"
	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var library = book.LibraryRef{MachineName: "H5P.Crossword", MajorVersion: 0, MinorVersion: 5}

type payload struct {
	Topic     string `json:"topic"`
	WordCount int    `json:"wordCount,omitempty"`
}

type clue struct {
	Answer string `json:"answer"`
	Clue   string `json:"clue"`
}

type generated struct {
	Clues []clue `json:"clues"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "ai-crossword" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("ai-crossword: %w", err)
	}
	if p.Topic == "" {
		return fmt.Errorf("ai-crossword: topic is required")
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("ai-crossword: %w", err)
	}
	wordCount := p.WordCount
	if wordCount <= 0 {
		wordCount = 6
	}

	if hctx.Generator == nil || !hctx.Generator.Configured() {
		warnFallback(hctx, p.Topic, "AI generator not configured")
		return fallback(p.Topic), nil
	}

	instruction := fmt.Sprintf(
		"Generate %d crossword word/clue pairs about %q for a %s audience, %s tone. Answers must be single words, letters only, no spaces.",
		wordCount, p.Topic, hctx.AIConfig.TargetAudience, hctx.AIConfig.Tone,
	)
	prompt := ai.BuildPrompt(
		instruction,
		`{"clues": [{"answer": "string", "clue": "string"}, ...]}`,
		`{"clues": [{"answer": "CHANNEL", "clue": "A typed conduit for goroutine communication"}]}`,
	)

	resp, err := hctx.Generator.Generate(ctx, &ai.Request{
		System: "You write crossword word/clue pairs for educational content.",
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

	// Each string field is stripped of any AI-introduced markup before
	// the handler's own invariants are checked, and re-escaped only
	// when a surviving pair is emitted: an answer containing whitespace
	// (i.e. more than one word) is discarded with a warning rather than
	// kept or causing a fallback by itself.
	words := make([]map[string]any, 0, len(g.Clues))
	for _, c := range g.Clues {
		answer := markup.StripMarkup(c.Answer)
		clueText := markup.StripMarkup(c.Clue)
		if answer == "" || clueText == "" {
			warn(hctx, fmt.Sprintf("ai-crossword: discarding empty answer/clue for topic %q", p.Topic))
			continue
		}
		if strings.ContainsAny(answer, " \t\n") {
			warn(hctx, fmt.Sprintf("ai-crossword: discarding multi-word answer %q for topic %q", answer, p.Topic))
			continue
		}
		words = append(words, map[string]any{
			"answer": markup.EscapeHTML(answer),
			"clue":   markup.EscapeHTML(clueText),
		})
	}
	if len(words) < 2 {
		warnFallback(hctx, p.Topic, "fewer than 2 usable clues remained after filtering")
		return fallback(p.Topic), nil
	}

	f := book.NewFragment("ai-crossword", library)
	f.Params["words"] = words
	return f, nil
}

func fallback(topic string) *book.Fragment {
	f := book.NewFragment("ai-crossword", library)
	f.Params["words"] = []map[string]any{
		{"answer": "TOPIC", "clue": markup.EscapeHTML(fmt.Sprintf("The subject of this puzzle: %s", topic))},
		{"answer": "REVIEW", "clue": "What you do before a test"},
	}
	return f
}

func warnFallback(hctx *handler.Context, topic, reason string) {
	warn(hctx, fmt.Sprintf("ai-crossword: falling back for topic %q: %s", topic, reason))
}

func warn(hctx *handler.Context, msg string) {
	if hctx == nil || hctx.Logger == nil {
		return
	}
	hctx.Logger.Warn().Msg(msg)
}
