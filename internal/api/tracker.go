package api

import (
	"context"
	"sync"
	"time"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/orchestrator"
)

// BuildStatus is the point-in-time status of one tracked build.
type BuildStatus struct {
	ID           string    `json:"id"`
	Phase        string    `json:"phase"`
	Error        string    `json:"error,omitempty"`
	OutputPath   string    `json:"outputPath,omitempty"`
	LibraryCount int       `json:"libraryCount,omitempty"`
	MediaCount   int       `json:"mediaCount,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

const (
	PhaseQueued = "queued"
	PhaseFailed = "failed"
)

// Tracker records in-flight and completed build statuses, keyed by
// build id. A build's status is retained after completion so a caller
// can poll GET /build/{id} for the final result.
type Tracker struct {
	mu      sync.RWMutex
	builds  map[string]*BuildStatus
	orch    *orchestrator.Orchestrator
}

// NewTracker creates a Tracker driving builds through orch.
func NewTracker(orch *orchestrator.Orchestrator) *Tracker {
	return &Tracker{
		builds: make(map[string]*BuildStatus),
		orch:   orch,
	}
}

// Get returns the tracked status for id, if any.
func (t *Tracker) Get(id string) (*BuildStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.builds[id]
	return s, ok
}

func (t *Tracker) set(id string, mutate func(*BuildStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.builds[id]
	if !ok {
		s = &BuildStatus{ID: id, StartedAt: time.Now()}
		t.builds[id] = s
	}
	mutate(s)
	s.UpdatedAt = time.Now()
}

// StartAsync registers id as queued and runs the compile in a
// goroutine, updating the tracked status as it progresses through
// each orchestrator phase and on completion or failure.
func (t *Tracker) StartAsync(id string, def *book.BookDefinition, outputPath string) {
	t.set(id, func(s *BuildStatus) { s.Phase = PhaseQueued })

	go func() {
		result, err := t.orch.CompileWithProgress(context.Background(), def, outputPath, func(phase string) {
			t.set(id, func(s *BuildStatus) { s.Phase = phase })
		})
		if err != nil {
			t.set(id, func(s *BuildStatus) {
				s.Phase = PhaseFailed
				s.Error = err.Error()
			})
			return
		}
		t.set(id, func(s *BuildStatus) {
			s.OutputPath = result.OutputPath
			s.LibraryCount = result.LibraryCount
			s.MediaCount = result.MediaCount
		})
	}()
}
