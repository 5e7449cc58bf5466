// Package audio implements the single-track audio content handler.
package audio

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
)

var library = book.LibraryRef{MachineName: "H5P.Audio", MajorVersion: 1, MinorVersion: 5}

type payload struct {
	Source string `json:"source"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "audio" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if p.Source == "" {
		return fmt.Errorf("audio: source is required")
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	asset, err := hctx.Loader.Load(ctx, p.Source)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	path := hctx.Media.Register(book.MediaKindAudio, asset.Bytes, asset.MIME, asset.Extension)

	f := book.NewFragment("audio", library)
	f.Params["files"] = []any{map[string]any{"path": path, "mime": asset.MIME}}
	f.ReferenceMedia(path)
	return f, nil
}
