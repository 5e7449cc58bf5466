// Package image implements the single-image content handler.
package image

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/markup"
)

var library = book.LibraryRef{MachineName: "H5P.Image", MajorVersion: 1, MinorVersion: 1}

type payload struct {
	Source string `json:"source"`
	Alt    string `json:"alt"`
}

type Handler struct{}

func New() *Handler { return &Handler{} }

func (h *Handler) ContentType() string { return "image" }

func (h *Handler) RequiredLibraries() []book.LibraryRef { return []book.LibraryRef{library} }

func (h *Handler) ValidateItem(item book.ContentItem) error {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return fmt.Errorf("image: %w", err)
	}
	if p.Source == "" {
		return fmt.Errorf("image: source is required")
	}
	return nil
}

func (h *Handler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	var p payload
	if err := json.Unmarshal(item.Payload, &p); err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}

	asset, err := hctx.Loader.Load(ctx, p.Source)
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}

	path := hctx.Media.Register(book.MediaKindImage, asset.Bytes, asset.MIME, asset.Extension)

	f := book.NewFragment("image", library)
	f.Params["file"] = map[string]any{"path": path, "mime": asset.MIME}
	if p.Alt != "" {
		f.Params["alt"] = markup.EscapeHTML(p.Alt)
	}
	f.ReferenceMedia(path)
	return f, nil
}
