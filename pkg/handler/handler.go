// Package handler defines the content-type handler contract and a
// registry that dispatches content items to the handler registered for
// their type tag.
package handler

import (
	"context"
	"fmt"
	"sync"

	"github.com/bookforge/bookc/pkg/ai"
	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/media"
	"github.com/ternarybob/arbor"
)

// Context carries the per-build collaborators a handler needs:
// resolved AI configuration, the media manifest fragments register
// assets into, a media loader for resolving local/remote references,
// a logger AI-assisted handlers use to record fallback warnings, and
// (for AI-assisted handlers) a generator.
type Context struct {
	Media     *book.MediaManifest
	Loader    *media.Loader
	Generator ai.Generator
	AIConfig  book.AIConfig
	Logger    arbor.ILogger
}

// Handler converts one content item into a content-graph fragment.
type Handler interface {
	// ContentType returns the discriminator tag this handler answers
	// to (e.g. "text", "ai-dragtext").
	ContentType() string

	// RequiredLibraries lists the runtime libraries this handler's
	// output depends on, so the orchestrator can resolve them from the
	// catalog once every item has been dispatched.
	RequiredLibraries() []book.LibraryRef

	// ValidateItem checks the item's payload shape before Process is
	// called, independent of any library schema.
	ValidateItem(item book.ContentItem) error

	// Process builds the fragment for item.
	Process(ctx context.Context, hctx *Context, item book.ContentItem) (*book.Fragment, error)
}

// NoHandlerError reports a content item whose type has no registered
// handler.
type NoHandlerError struct {
	Type string
}

func (e *NoHandlerError) Error() string {
	return fmt.Sprintf("handler: no handler registered for content type %q", e.Type)
}

// InvalidContentError wraps a handler-level validation failure.
type InvalidContentError struct {
	Type string
	Err  error
}

func (e *InvalidContentError) Error() string {
	return fmt.Sprintf("handler: invalid %q content: %v", e.Type, e.Err)
}
func (e *InvalidContentError) Unwrap() error { return e.Err }

// Registry maps content-type tags to the handler that processes them.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	order    []string
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h under its own ContentType plus any additional
// aliases it also answers to. It fails, registering nothing, if any of
// those tags is empty or already bound.
func (r *Registry) Register(h Handler, aliases ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := append([]string{h.ContentType()}, aliases...)
	for _, t := range types {
		if t == "" {
			return fmt.Errorf("handler: content type cannot be empty")
		}
		if _, exists := r.handlers[t]; exists {
			return fmt.Errorf("handler: %q already registered", t)
		}
	}
	for _, t := range types {
		r.handlers[t] = h
		r.order = append(r.order, t)
	}
	return nil
}

// Get returns the handler registered for contentType, if any.
func (r *Registry) Get(contentType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[contentType]
	return h, ok
}

// Dispatch routes item to its registered handler by exact type match.
func (r *Registry) Dispatch(ctx context.Context, hctx *Context, item book.ContentItem) (*book.Fragment, error) {
	h, ok := r.Get(item.Type)
	if !ok {
		return nil, &NoHandlerError{Type: item.Type}
	}

	if err := h.ValidateItem(item); err != nil {
		return nil, &InvalidContentError{Type: item.Type, Err: err}
	}

	return h.Process(ctx, hctx, item)
}

// RequiredLibraries aggregates the required libraries of every
// distinct registered handler (each handler counted once even if
// registered under multiple aliases).
func (r *Registry) RequiredLibraries() []book.LibraryRef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[Handler]bool)
	var libs []book.LibraryRef
	for _, t := range r.order {
		h := r.handlers[t]
		if seen[h] {
			continue
		}
		seen[h] = true
		libs = append(libs, h.RequiredLibraries()...)
	}
	return libs
}

// Count returns the number of distinct registered handlers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[Handler]bool)
	for _, h := range r.handlers {
		seen[h] = true
	}
	return len(seen)
}
