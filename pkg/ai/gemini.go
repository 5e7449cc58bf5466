package ai

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GeminiGenerator implements Generator over the Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// GeminiConfig configures a GeminiGenerator.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewGeminiGenerator creates a generator backed by the Gemini API. It
// returns a generator whose Configured() is false when no API key is
// present; callers still get a usable, inert value rather than nil,
// so handlers can unconditionally ask Configured() before calling
// Generate.
func NewGeminiGenerator(cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.APIKey == "" {
		return &GeminiGenerator{model: cfg.Model, timeout: cfg.Timeout}, nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("ai: create gemini client: %w", err)
	}

	return &GeminiGenerator{client: client, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// Configured reports whether an API key was supplied.
func (g *GeminiGenerator) Configured() bool {
	return g != nil && g.client != nil
}

// Generate issues a single generation call and returns the raw text.
func (g *GeminiGenerator) Generate(ctx context.Context, req *Request) (*Response, error) {
	if !g.Configured() {
		return nil, &ProviderError{Provider: "gemini", Err: fmt.Errorf("no API key configured")}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}

	fullPrompt := req.Prompt
	if req.System != "" {
		fullPrompt = req.System + "\n\n" + req.Prompt
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(fullPrompt), config)
	if err != nil {
		return nil, &ProviderError{Provider: "gemini", Err: err}
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, &ProviderError{Provider: "gemini", Err: fmt.Errorf("empty response")}
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	if text == "" {
		return nil, &ProviderError{Provider: "gemini", Err: fmt.Errorf("no text in response")}
	}

	return &Response{Text: text, Model: g.model}, nil
}
