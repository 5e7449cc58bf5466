// Package watch implements rebuild-on-change for a single book
// definition file: an fsnotify watch on its parent directory, debounced
// so a burst of writes from an editor's save collapses into one
// recompile.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bookforge/bookc/internal/logger"
	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/orchestrator"
	"github.com/fsnotify/fsnotify"
)

// Watcher rebuilds outputPath from definitionPath every time the
// definition file changes on disk.
type Watcher struct {
	definitionPath string
	outputPath     string
	orch           *orchestrator.Orchestrator
	debounce       time.Duration

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}

	mu      sync.Mutex
	pending time.Time
}

// New creates a Watcher. debounce defaults to 300ms if zero.
func New(definitionPath, outputPath string, orch *orchestrator.Orchestrator, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	if debounce == 0 {
		debounce = 300 * time.Millisecond
	}

	dir := filepath.Dir(definitionPath)
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch: add %s: %w", dir, err)
	}

	return &Watcher{
		definitionPath: definitionPath,
		outputPath:     outputPath,
		orch:           orch,
		debounce:       debounce,
		fsWatcher:      fsWatcher,
		stopCh:         make(chan struct{}),
	}, nil
}

// Run compiles the definition once immediately, then keeps recompiling
// on every subsequent change until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	log := logger.GetLogger()

	if err := w.rebuild(ctx); err != nil {
		log.Error().Err(err).Msg("initial build failed")
	}

	debounceTicker := time.NewTicker(w.debounce)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return w.fsWatcher.Close()

		case <-w.stopCh:
			return w.fsWatcher.Close()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.definitionPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watcher error")

		case <-debounceTicker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if due {
				if err := w.rebuild(ctx); err != nil {
					log.Error().Err(err).Msg("rebuild failed")
				}
			}
		}
	}
}

// Stop ends Run.
func (w *Watcher) Stop() {
	close(w.stopCh)
}

func (w *Watcher) rebuild(ctx context.Context) error {
	log := logger.GetLogger()

	data, err := os.ReadFile(w.definitionPath)
	if err != nil {
		return fmt.Errorf("watch: read definition: %w", err)
	}
	def, err := book.ParseDefinition(data)
	if err != nil {
		return fmt.Errorf("watch: parse definition: %w", err)
	}

	result, err := w.orch.Compile(ctx, def, w.outputPath)
	if err != nil {
		return fmt.Errorf("watch: compile: %w", err)
	}

	log.Info().Str("output", result.OutputPath).Msg("rebuilt")
	return nil
}
