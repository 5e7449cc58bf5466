// Package aiessay generates an essay prompt and grading keywords for a
// topic via the configured AI generator, falling back to a generic
// open-ended prompt when generation is unavailable or unusable.
package aiessay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookforge/bookc/pkg/ai"
	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var library = book.LibraryRef{MachineName: "H5P.Essay", MajorVersion: 1, MinorVersion: 5}

type payload struct {
	Topic string `json:"topic"`
}

type generated struct {
	Prompt          string   `json:"prompt"`
	RequiredPhrases []string `json:"requiredPhrases"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "ai-essay" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("ai-essay: %w", err)
	}
	if p.Topic == "" {
		return fmt.Errorf("ai-essay: topic is required")
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("ai-essay: %w", err)
	}

	if hctx.Generator == nil || !hctx.Generator.Configured() {
		warnFallback(hctx, p.Topic, "AI generator not configured")
		return fallback(p.Topic), nil
	}

	instruction := fmt.Sprintf(
		"Write an essay prompt about %q for a %s audience, %s tone, plus 2-4 keywords a good answer should mention.",
		p.Topic, hctx.AIConfig.TargetAudience, hctx.AIConfig.Tone,
	)
	prompt := ai.BuildPrompt(
		instruction,
		`{"prompt": "string", "requiredPhrases": ["string", ...]}`,
		`{"prompt": "Explain how goroutines differ from OS threads.", "requiredPhrases": ["scheduler", "stack"]}`,
	)

	resp, err := hctx.Generator.Generate(ctx, &ai.Request{
		System: "You write open-ended essay prompts for educational content.",
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

	promptText := markup.StripMarkup(g.Prompt)
	if promptText == "" {
		warnFallback(hctx, p.Topic, "response had no usable essay prompt")
		return fallback(p.Topic), nil
	}

	f := book.NewFragment("ai-essay", library)
	f.Params["taskDescription"] = markup.EscapeHTML(promptText)
	if len(g.RequiredPhrases) > 0 {
		keywords := make([]map[string]any, 0, len(g.RequiredPhrases))
		for _, phrase := range g.RequiredPhrases {
			clean := markup.StripMarkup(phrase)
			if clean == "" {
				continue
			}
			keywords = append(keywords, map[string]any{"keyword": markup.EscapeHTML(clean)})
		}
		if len(keywords) > 0 {
			f.Params["keywords"] = keywords
		}
	}
	return f, nil
}

func fallback(topic string) *book.Fragment {
	f := book.NewFragment("ai-essay", library)
	f.Params["taskDescription"] = markup.EscapeHTML(fmt.Sprintf("Write a short essay about %s.", topic))
	return f
}

func warnFallback(hctx *handler.Context, topic, reason string) {
	warn(hctx, fmt.Sprintf("ai-essay: falling back for topic %q: %s", topic, reason))
}

func warn(hctx *handler.Context, msg string) {
	if hctx == nil || hctx.Logger == nil {
		return
	}
	hctx.Logger.Warn().Msg(msg)
}
