// Package book defines the input book definition and the in-memory
// content graph the compiler builds from it.
package book

import (
	"encoding/json"
	"fmt"
)

// AIConfig is the cascading AI-assistance configuration. Fields are
// resolved item-level -> chapter-level -> book-level -> defaults,
// each field taken independently from the first level where it is
// present (see ResolveAIConfig).
type AIConfig struct {
	TargetAudience string `json:"targetAudience,omitempty"`
	Tone           string `json:"tone,omitempty"`
	Customization  string `json:"customization,omitempty"`
}

// ContentItem is a tagged variant: a discriminator Type plus a
// per-variant JSON payload, dispatched by the handler registry. An
// item may also carry its own AIConfig, the innermost level of the
// item -> chapter -> book cascade (see ResolveAIConfig).
type ContentItem struct {
	Type     string          `json:"type"`
	AIConfig *AIConfig       `json:"aiConfig,omitempty"`
	Payload  json.RawMessage `json:"-"`
}

// UnmarshalJSON captures the discriminator and any item-level AI
// config, and keeps the remaining object bytes as the raw per-variant
// payload, so a handler can unmarshal it into its own shape without
// the registry knowing it.
func (c *ContentItem) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type     string    `json:"type"`
		AIConfig *AIConfig `json:"aiConfig,omitempty"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("content item: %w", err)
	}
	c.Type = probe.Type
	c.AIConfig = probe.AIConfig
	c.Payload = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON re-emits the original payload bytes.
func (c ContentItem) MarshalJSON() ([]byte, error) {
	if c.Payload != nil {
		return c.Payload, nil
	}
	return json.Marshal(struct {
		Type string `json:"type"`
	}{Type: c.Type})
}

// ChapterDefinition is one input chapter: a title, optional
// chapter-level AI configuration, and an ordered list of content items.
type ChapterDefinition struct {
	Title    string        `json:"title"`
	AIConfig *AIConfig     `json:"aiConfig,omitempty"`
	Content  []ContentItem `json:"content"`
}

// BookDefinition is the validated input accepted by the compiler. Its
// shape is fixed by spec; producing one from a declarative document is
// an external collaborator's job (out of scope here).
type BookDefinition struct {
	Title      string              `json:"title"`
	Language   string              `json:"language"`
	Cover      *MediaReference     `json:"cover,omitempty"`
	Chapters   []ChapterDefinition `json:"chapters"`
	AIConfig   *AIConfig           `json:"aiConfig,omitempty"`
	MainAsset  string              `json:"-"` // not set or read by the compiler; local media resolve against the media.Loader base dir
}

// MediaReference names a media asset, either a local path (resolved
// against a configured base directory) or an absolute HTTP(S) URL.
type MediaReference struct {
	Path string `json:"path"`
	Alt  string `json:"alt,omitempty"`
}

// Validate checks the invariants from spec §3: the chapter list is
// non-empty and every chapter carries at least one content item.
func (b *BookDefinition) Validate() error {
	if b.Title == "" {
		return fmt.Errorf("book definition: title is required")
	}
	if len(b.Chapters) == 0 {
		return fmt.Errorf("book definition: chapters must be non-empty")
	}
	for i, ch := range b.Chapters {
		if len(ch.Content) == 0 {
			return fmt.Errorf("book definition: chapter %d (%q) has no content items", i, ch.Title)
		}
	}
	return nil
}

// ParseDefinition parses a BookDefinition from JSON bytes.
func ParseDefinition(data []byte) (*BookDefinition, error) {
	var def BookDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse book definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// ResolveAIConfig walks item -> chapter -> book -> defaults and takes
// the first present value per field independently.
func ResolveAIConfig(item, chapter, book *AIConfig) AIConfig {
	resolved := AIConfig{
		TargetAudience: "grade-6",
		Tone:           "educational",
		Customization:  "",
	}

	pick := func(get func(*AIConfig) string) string {
		for _, cfg := range []*AIConfig{item, chapter, book} {
			if cfg == nil {
				continue
			}
			if v := get(cfg); v != "" {
				return v
			}
		}
		return ""
	}

	if v := pick(func(c *AIConfig) string { return c.TargetAudience }); v != "" {
		resolved.TargetAudience = v
	}
	if v := pick(func(c *AIConfig) string { return c.Tone }); v != "" {
		resolved.Tone = v
	}
	if v := pick(func(c *AIConfig) string { return c.Customization }); v != "" {
		resolved.Customization = v
	}

	return resolved
}
