// Package ai implements the AI generation protocol shared by the
// AI-assisted content handlers: prompt assembly, a single structured
// generation call, and response sanitation. Config cascading lives in
// pkg/book (ResolveAIConfig); each handler enforces its own output
// invariants and supplies its own fallback fragment when generation
// fails.
package ai

import (
	"context"
	"fmt"
)

// Request is one structured-JSON generation call.
type Request struct {
	// System is the system prompt: role, constraints, output contract.
	System string

	// Prompt is the user-turn prompt, typically the handler's
	// instruction plus a JSON schema description and a worked example,
	// built by BuildPrompt.
	Prompt string

	MaxTokens   int
	Temperature float64
}

// Response is a generation result.
type Response struct {
	Text  string
	Model string
}

// Generator produces a single structured-JSON completion. Handlers
// call it once per content item; on any error they fall back to a
// minimal non-AI fragment rather than retrying.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
	Configured() bool
}

// ProviderError wraps a generation failure from a specific backend.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ai: %s: %v", e.Provider, e.Err)
}
func (e *ProviderError) Unwrap() error { return e.Err }

// BuildPrompt assembles a user-turn prompt from an instruction, the
// target JSON shape, and a worked example, so the model has both a
// schema description and a concrete instance to imitate.
func BuildPrompt(instruction, schemaDescription, example string) string {
	return fmt.Sprintf(
		"%s\n\nRespond with a single JSON object matching this shape:\n%s\n\nExample:\n%s\n\nRespond with ONLY the JSON object, no commentary.",
		instruction, schemaDescription, example,
	)
}
