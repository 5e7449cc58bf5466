package book

import (
	"fmt"

	"github.com/google/uuid"
)

// Chapter is a chapter node in the content graph: a title and an
// ordered list of fragments.
type Chapter struct {
	Title     string      `json:"title"`
	Fragments []*Fragment `json:"fragments"`
}

// Book is the root of the content graph: title, language, and an
// ordered list of chapters.
type Book struct {
	Title    string     `json:"title"`
	Language string     `json:"language"`
	Chapters []*Chapter `json:"chapters"`
}

// FragmentValidator validates one fragment's params against the
// schema of the library it targets. The Builder calls this for every
// fragment before Build() returns (spec §4.4). Implemented by
// pkg/catalog + pkg/schema together; declared here to avoid an import
// cycle between the content graph and the library registry.
type FragmentValidator interface {
	ValidateFragment(lib LibraryRef, params map[string]any) error
}

// Builder constructs a Book incrementally, assigning sub-content ids,
// checking that every media reference names a path registered in its
// media manifest, and validating the result against library schemas.
type Builder struct {
	validator FragmentValidator
	media     *MediaManifest
	book      *Book
	seenIDs   map[string]bool
}

// NewBuilder creates a book builder. validator may be nil, in which
// case per-fragment schema validation is skipped (useful in unit
// tests that don't need a live library registry).
func NewBuilder(title, language string, validator FragmentValidator) *Builder {
	return &Builder{
		validator: validator,
		media:     NewMediaManifest(),
		book: &Book{
			Title:    title,
			Language: language,
		},
		seenIDs: make(map[string]bool),
	}
}

// Media returns the media manifest shared by this build.
func (b *Builder) Media() *MediaManifest {
	return b.media
}

// AddChapter appends a new chapter and returns a builder scoped to it.
func (b *Builder) AddChapter(title string) *ChapterBuilder {
	ch := &Chapter{Title: title}
	b.book.Chapters = append(b.book.Chapters, ch)
	return &ChapterBuilder{parent: b, chapter: ch}
}

// assignSubContentID gives f a unique id, proposing the handler's
// choice (if any) and rewriting on collision.
func (b *Builder) assignSubContentID(f *Fragment) {
	propose := func() string { return uuid.NewString() }

	if f.SubContentID == "" {
		f.SubContentID = propose()
	}
	for b.seenIDs[f.SubContentID] {
		f.SubContentID = propose()
	}
	b.seenIDs[f.SubContentID] = true

	for _, child := range f.Children {
		b.assignSubContentID(child)
	}
}

// Validate enforces the Builder invariants (spec §4.4): every chapter
// has at least one fragment, every fragment's media references
// resolve in the manifest, and (when a validator is configured) every
// fragment satisfies its library's schema.
func (b *Builder) Validate() error {
	if len(b.book.Chapters) == 0 {
		return fmt.Errorf("content graph: book has no chapters")
	}

	for i, ch := range b.book.Chapters {
		if len(ch.Fragments) == 0 {
			return fmt.Errorf("content graph: chapter %d (%q) has no fragments", i, ch.Title)
		}
		for _, f := range ch.Fragments {
			if err := b.validateFragment(i, ch.Title, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) validateFragment(chapterIdx int, chapterTitle string, f *Fragment) error {
	for _, ref := range f.AllMediaRefs() {
		if !b.media.Has(ref) {
			return fmt.Errorf("content graph: chapter %d (%q) item %q references unregistered media %q",
				chapterIdx, chapterTitle, f.Type, ref)
		}
	}

	if b.validator != nil {
		if err := b.validator.ValidateFragment(f.Library, f.Params); err != nil {
			return fmt.Errorf("content graph: chapter %d (%q) item %q: %w", chapterIdx, chapterTitle, f.Type, err)
		}
	}

	for _, child := range f.Children {
		if err := b.validateFragment(chapterIdx, chapterTitle, child); err != nil {
			return err
		}
	}
	return nil
}

// Build finalizes the content graph, assigning sub-content ids across
// every fragment (in declaration order), validating it, and returning
// the book plus its media manifest.
func (b *Builder) Build() (*Book, *MediaManifest, error) {
	for _, ch := range b.book.Chapters {
		for _, f := range ch.Fragments {
			b.assignSubContentID(f)
		}
	}

	if err := b.Validate(); err != nil {
		return nil, nil, err
	}

	return b.book, b.media, nil
}

// ChapterBuilder appends fragments to a single chapter.
type ChapterBuilder struct {
	parent  *Builder
	chapter *Chapter
}

// AddFragment appends an already-constructed fragment (used by
// handlers that build their own Fragment value via NewFragment).
func (c *ChapterBuilder) AddFragment(f *Fragment) *ChapterBuilder {
	c.chapter.Fragments = append(c.chapter.Fragments, f)
	return c
}

// AddTextPage appends a minimal text fragment. Convenience wrapper
// used by tests; the plain-text handler builds its own fragment.
func (c *ChapterBuilder) AddTextPage(lib LibraryRef, html string) *ChapterBuilder {
	f := NewFragment("text", lib)
	f.Params["text"] = html
	return c.AddFragment(f)
}

// AddImagePage appends a minimal image fragment referencing an
// already-registered canonical media path.
func (c *ChapterBuilder) AddImagePage(lib LibraryRef, canonicalPath, alt string) *ChapterBuilder {
	f := NewFragment("image", lib)
	f.Params["file"] = map[string]any{"path": canonicalPath}
	f.Params["alt"] = alt
	f.ReferenceMedia(canonicalPath)
	return c.AddFragment(f)
}

// AddAudioPage appends a minimal audio fragment.
func (c *ChapterBuilder) AddAudioPage(lib LibraryRef, canonicalPath string) *ChapterBuilder {
	f := NewFragment("audio", lib)
	f.Params["files"] = []any{map[string]any{"path": canonicalPath}}
	f.ReferenceMedia(canonicalPath)
	return c.AddFragment(f)
}

// Media exposes the shared media manifest to chapter-scoped callers.
func (c *ChapterBuilder) Media() *MediaManifest {
	return c.parent.Media()
}

// RegisterValidator lets a caller retarget the builder's validator
// after construction. The orchestrator uses it to attach the library
// registry once the required libraries have been resolved.
func (b *Builder) RegisterValidator(v FragmentValidator) {
	b.validator = v
}
