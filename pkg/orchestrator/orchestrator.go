// Package orchestrator drives a single compile end to end: accept a
// book definition, dispatch every content item to its handler,
// resolve the libraries those handlers require (plus their
// transitive dependencies) from the catalog, validate the resulting
// content graph against those libraries' schemas, and assemble the
// archive.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/bookforge/bookc/internal/logger"
	"github.com/bookforge/bookc/pkg/ai"
	"github.com/bookforge/bookc/pkg/assembler"
	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/catalog"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/media"
)

// MainLibrary is the fixed root-manifest library every archive
// declares itself to run under. The spec leaves this choice to the
// implementer; the interactive-book runtime is the reference choice.
var MainLibrary = book.LibraryRef{MachineName: "H5P.InteractiveBook", MajorVersion: 1, MinorVersion: 12}

// Orchestrator owns the collaborators a compile needs and serializes
// compiles against them: one compile runs at a time per instance.
// Concurrent compiles use separate Orchestrator instances, which may
// share a catalog.Registry (its in-memory cache is mutex-guarded).
type Orchestrator struct {
	mu sync.Mutex

	catalog   *catalog.Registry
	handlers  *handler.Registry
	loader    *media.Loader
	generator ai.Generator
	assembler *assembler.Assembler
}

// New creates an Orchestrator. generator may be nil, in which case
// AI-assisted handlers fall back to their static content.
func New(catalogRegistry *catalog.Registry, handlers *handler.Registry, loader *media.Loader, generator ai.Generator) *Orchestrator {
	return &Orchestrator{
		catalog:   catalogRegistry,
		handlers:  handlers,
		loader:    loader,
		generator: generator,
		assembler: assembler.New(),
	}
}

// Result summarizes a completed compile.
type Result struct {
	OutputPath   string
	Book         *book.Book
	LibraryCount int
	MediaCount   int
}

// Phase names reported to a Compile progress callback, in the order a
// successful compile passes through them.
const (
	PhaseDispatching = "dispatching"
	PhaseResolving   = "resolving-libraries"
	PhaseValidating  = "validating"
	PhaseAssembling  = "assembling"
	PhaseDone        = "done"
)

// Compile runs a book definition through the full pipeline and writes
// the resulting archive to outputPath.
func (o *Orchestrator) Compile(ctx context.Context, def *book.BookDefinition, outputPath string) (*Result, error) {
	return o.CompileWithProgress(ctx, def, outputPath, func(string) {})
}

// CompileWithProgress is Compile, additionally invoking onProgress as
// the build passes through each phase (used by the build-status API
// to report in-flight progress for a running build).
func (o *Orchestrator) CompileWithProgress(ctx context.Context, def *book.BookDefinition, outputPath string, onProgress func(phase string)) (*Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	log := logger.GetLogger()

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	onProgress(PhaseDispatching)

	builder := book.NewBuilder(def.Title, def.Language, nil)
	// required is built in first-encounter order (main library, then
	// each item's libraries in declaration order) rather than as a map,
	// so the refs handed to ResolveAll - and therefore the topological
	// order it resolves into - are reproducible run to run.
	required := []book.LibraryRef{MainLibrary}
	requiredSeen := map[string]bool{libKey(MainLibrary): true}

	for _, chapterDef := range def.Chapters {
		chBuilder := builder.AddChapter(chapterDef.Title)
		log.Debug().Str("chapter", chapterDef.Title).Int("items", len(chapterDef.Content)).Msg("dispatching chapter content")

		for _, item := range chapterDef.Content {
			h, ok := o.handlers.Get(item.Type)
			if !ok {
				return nil, fmt.Errorf("orchestrator: chapter %q: %w", chapterDef.Title, &handler.NoHandlerError{Type: item.Type})
			}
			for _, lib := range h.RequiredLibraries() {
				key := libKey(lib)
				if requiredSeen[key] {
					continue
				}
				requiredSeen[key] = true
				required = append(required, lib)
			}

			hctx := &handler.Context{
				Media:     builder.Media(),
				Loader:    o.loader,
				Generator: o.generator,
				AIConfig:  book.ResolveAIConfig(item.AIConfig, chapterDef.AIConfig, def.AIConfig),
				Logger:    log,
			}

			frag, err := o.handlers.Dispatch(ctx, hctx, item)
			if err != nil {
				return nil, fmt.Errorf("orchestrator: chapter %q: %w", chapterDef.Title, err)
			}
			chBuilder.AddFragment(frag)
		}
	}

	onProgress(PhaseResolving)
	resolved, err := o.catalog.ResolveAll(ctx, required)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: resolve libraries: %w", err)
	}
	log.Info().Int("libraries", len(resolved)).Msg("resolved library set")

	onProgress(PhaseValidating)
	builder.RegisterValidator(o.catalog)
	builtBook, mediaManifest, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	onProgress(PhaseAssembling)
	if err := o.assembler.Assemble(ctx, &assembler.Input{
		Book:        builtBook,
		Media:       mediaManifest,
		Libraries:   resolved,
		MainLibrary: MainLibrary,
	}, outputPath); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	onProgress(PhaseDone)

	log.Info().Str("output", outputPath).Int("mediaCount", mediaManifest.Count()).Msg("compile complete")

	return &Result{
		OutputPath:   outputPath,
		Book:         builtBook,
		LibraryCount: len(resolved),
		MediaCount:   mediaManifest.Count(),
	}, nil
}

func libKey(lib book.LibraryRef) string {
	return fmt.Sprintf("%s-%d.%d", lib.MachineName, lib.MajorVersion, lib.MinorVersion)
}
