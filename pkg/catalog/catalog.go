// Package catalog implements the library registry: it resolves a
// runtime library reference to a locally cached, extracted directory,
// fetching it from a remote catalog on first use and walking its
// transitive dependencies.
package catalog

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/schema"
	"github.com/google/uuid"
	digest "github.com/opencontainers/go-digest"
)

// UnavailableError wraps a failure to reach the remote catalog.
type UnavailableError struct {
	Ref book.LibraryRef
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("catalog: %s unavailable: %v", refString(e.Ref), e.Err)
}
func (e *UnavailableError) Unwrap() error { return e.Err }

// CorruptError reports a cached or fetched library archive that cannot
// be extracted or whose library.json, version or semantics cannot be
// parsed.
type CorruptError struct {
	Ref    book.LibraryRef
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("catalog: %s corrupt: %s", refString(e.Ref), e.Reason)
}

// UnresolvedDependencyError reports a dependency cycle or a dependency
// that the catalog could not resolve. Err holds the underlying fetch
// or parse failure; it is nil for a cycle.
type UnresolvedDependencyError struct {
	Ref   book.LibraryRef
	Chain []book.LibraryRef
	Err   error
}

func (e *UnresolvedDependencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog: unresolved dependency %s (chain: %v): %v", refString(e.Ref), e.Chain, e.Err)
	}
	return fmt.Sprintf("catalog: unresolved dependency %s (chain: %v)", refString(e.Ref), e.Chain)
}
func (e *UnresolvedDependencyError) Unwrap() error { return e.Err }

func refString(r book.LibraryRef) string {
	return fmt.Sprintf("%s %d.%d", r.MachineName, r.MajorVersion, r.MinorVersion)
}

// libraryManifest is the subset of a library's own metadata file that
// the registry needs: its declared dependencies and parameter schema.
type libraryManifest struct {
	MachineName  string            `json:"machineName"`
	MajorVersion int               `json:"majorVersion"`
	MinorVersion int               `json:"minorVersion"`
	PatchVersion int               `json:"patchVersion"`
	Dependencies []dependencyEntry `json:"preloadedDependencies"`
	Schema       json.RawMessage   `json:"semantics,omitempty"`
}

type dependencyEntry struct {
	MachineName  string `json:"machineName"`
	MajorVersion int    `json:"majorVersion"`
	MinorVersion int    `json:"minorVersion"`
}

// Resolved is a library pulled into the local cache: its directory on
// disk, its manifest-declared dependencies, and the sha256 digest of
// the archive as downloaded. The digest is recorded, not checked; it
// is empty for a library reloaded from the on-disk cache.
type Resolved struct {
	Ref     book.LibraryRef
	Dir     string
	Deps    []book.LibraryRef
	Schema  *schema.Schema
	Digest  digest.Digest
	Version *semver.Version
}

// Registry fetches, caches, and resolves runtime libraries and their
// transitive dependencies.
type Registry struct {
	baseURL    string
	cacheDir   string
	httpClient *http.Client
	progress   ProgressTracker

	mu     sync.RWMutex
	memory map[string]*Resolved
}

// ProgressTracker reports per-library download progress. TrackDownload
// wraps the archive body as it streams off the wire and returns a
// ReadCloser that reports bytes as they're read through it; Close
// releases whatever bar or spinner was allocated for the download.
type ProgressTracker interface {
	TrackDownload(ref book.LibraryRef, totalBytes int64, body io.Reader) io.ReadCloser
}

// SetProgressTracker attaches t so every subsequent fetch reports its
// download progress through it. Passing nil disables reporting.
func (r *Registry) SetProgressTracker(t ProgressTracker) {
	r.progress = t
}

// NewRegistry creates a registry backed by a remote catalog at
// baseURL and a local disk cache rooted at cacheDir.
func NewRegistry(baseURL, cacheDir string, client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Registry{
		baseURL:    baseURL,
		cacheDir:   cacheDir,
		httpClient: client,
		memory:     make(map[string]*Resolved),
	}
}

func cacheKey(ref book.LibraryRef) string {
	return fmt.Sprintf("%s-%d.%d", ref.MachineName, ref.MajorVersion, ref.MinorVersion)
}

// Resolve returns the cached, extracted directory for ref, fetching it
// from the remote catalog if neither the in-memory nor the on-disk
// cache already holds it.
func (r *Registry) Resolve(ctx context.Context, ref book.LibraryRef) (*Resolved, error) {
	key := cacheKey(ref)

	r.mu.RLock()
	if cached, ok := r.memory[key]; ok {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	dir := filepath.Join(r.cacheDir, key)
	if resolved, err := r.loadFromDisk(dir, ref); err == nil {
		r.store(key, resolved)
		return resolved, nil
	}

	resolved, err := r.fetchAndCache(ctx, ref, dir)
	if err != nil {
		return nil, err
	}
	r.store(key, resolved)
	return resolved, nil
}

func (r *Registry) store(key string, resolved *Resolved) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memory[key] = resolved
}

// loadFromDisk reconstructs a Resolved from an already-extracted cache
// directory, re-reading its manifest rather than re-fetching.
func (r *Registry) loadFromDisk(dir string, ref book.LibraryRef) (*Resolved, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("not cached")
	}

	manifestPath := filepath.Join(dir, "library.json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return parseResolved(dir, ref, data, "")
}

func parseResolved(dir string, ref book.LibraryRef, manifestData []byte, dig digest.Digest) (*Resolved, error) {
	var manifest libraryManifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, &CorruptError{Ref: ref, Reason: fmt.Sprintf("invalid library.json: %v", err)}
	}

	version, err := semver.NewVersion(fmt.Sprintf("%d.%d.%d", manifest.MajorVersion, manifest.MinorVersion, manifest.PatchVersion))
	if err != nil {
		return nil, &CorruptError{Ref: ref, Reason: fmt.Sprintf("invalid version: %v", err)}
	}

	deps := make([]book.LibraryRef, 0, len(manifest.Dependencies))
	for _, d := range manifest.Dependencies {
		deps = append(deps, book.LibraryRef{
			MachineName:  d.MachineName,
			MajorVersion: d.MajorVersion,
			MinorVersion: d.MinorVersion,
		})
	}

	var sch *schema.Schema
	if len(manifest.Schema) > 0 {
		sch, err = schema.Parse(manifest.Schema)
		if err != nil {
			return nil, &CorruptError{Ref: ref, Reason: fmt.Sprintf("invalid semantics: %v", err)}
		}
	}

	return &Resolved{
		Ref:     ref,
		Dir:     dir,
		Deps:    deps,
		Schema:  sch,
		Digest:  dig,
		Version: version,
	}, nil
}

// fetchAndCache downloads ref's archive from the remote catalog,
// records its digest, and atomically extracts it into finalDir via a
// write-to-temp-then-rename so a crash mid-extract never leaves a
// partially written cache entry visible.
func (r *Registry) fetchAndCache(ctx context.Context, ref book.LibraryRef, finalDir string) (*Resolved, error) {
	archiveURL := fmt.Sprintf("%s/%s/%d.%d", r.baseURL, ref.MachineName, ref.MajorVersion, ref.MinorVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return nil, &UnavailableError{Ref: ref, Err: err}
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &UnavailableError{Ref: ref, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UnavailableError{Ref: ref, Err: fmt.Errorf("status %s", resp.Status)}
	}

	body := io.Reader(resp.Body)
	if r.progress != nil {
		tracked := r.progress.TrackDownload(ref, resp.ContentLength, resp.Body)
		defer tracked.Close()
		body = tracked
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &UnavailableError{Ref: ref, Err: err}
	}

	dig := digest.FromBytes(data)

	tempDir := filepath.Join(r.cacheDir, ".tmp-"+uuid.NewString())
	if err := extractZip(data, tempDir); err != nil {
		os.RemoveAll(tempDir)
		return nil, &CorruptError{Ref: ref, Reason: err.Error()}
	}
	defer os.RemoveAll(tempDir)

	manifestData, err := os.ReadFile(filepath.Join(tempDir, "library.json"))
	if err != nil {
		return nil, &CorruptError{Ref: ref, Reason: fmt.Sprintf("missing library.json: %v", err)}
	}

	if err := os.MkdirAll(filepath.Dir(finalDir), 0755); err != nil {
		return nil, &UnavailableError{Ref: ref, Err: err}
	}
	if err := os.RemoveAll(finalDir); err != nil {
		return nil, &UnavailableError{Ref: ref, Err: err}
	}
	if err := os.Rename(tempDir, finalDir); err != nil {
		return nil, &UnavailableError{Ref: ref, Err: fmt.Errorf("commit cache entry: %w", err)}
	}

	return parseResolved(finalDir, ref, manifestData, dig)
}

func extractZip(data []byte, destDir string) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create extract dir: %w", err)
	}

	for _, f := range zr.File {
		target := filepath.Join(destDir, f.Name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			rc.Close()
			return err
		}
		_, copyErr := io.Copy(out, rc)
		rc.Close()
		out.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return nil
}

// ResolveAll resolves ref and every transitive dependency, returning
// the full set in a topological order suitable for archive emission
// (dependencies before dependents). Cycles are rejected.
func (r *Registry) ResolveAll(ctx context.Context, refs []book.LibraryRef) ([]*Resolved, error) {
	visited := make(map[string]*Resolved)
	var order []*Resolved
	var walk func(ref book.LibraryRef, chain []book.LibraryRef) error

	inChain := func(chain []book.LibraryRef, ref book.LibraryRef) bool {
		for _, c := range chain {
			if cacheKey(c) == cacheKey(ref) {
				return true
			}
		}
		return false
	}

	walk = func(ref book.LibraryRef, chain []book.LibraryRef) error {
		key := cacheKey(ref)
		if _, ok := visited[key]; ok {
			return nil
		}
		if inChain(chain, ref) {
			return &UnresolvedDependencyError{Ref: ref, Chain: chain}
		}

		resolved, err := r.Resolve(ctx, ref)
		if err != nil {
			if len(chain) > 0 {
				return &UnresolvedDependencyError{Ref: ref, Chain: chain, Err: err}
			}
			return err
		}

		nextChain := append(append([]book.LibraryRef(nil), chain...), ref)
		for _, dep := range resolved.Deps {
			if err := walk(dep, nextChain); err != nil {
				return err
			}
		}

		visited[key] = resolved
		order = append(order, resolved)
		return nil
	}

	for _, ref := range refs {
		if err := walk(ref, nil); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// ValidateFragment implements book.FragmentValidator by resolving the
// fragment's target library (which must already be cached by the time
// the builder runs) and checking its params against the library's
// schema.
func (r *Registry) ValidateFragment(lib book.LibraryRef, params map[string]any) error {
	r.mu.RLock()
	resolved, ok := r.memory[cacheKey(lib)]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("catalog: %s not resolved before validation", refString(lib))
	}
	if resolved.Schema == nil {
		return nil
	}

	errs, _ := schema.Validate(params, resolved.Schema)
	if len(errs) > 0 {
		return errs
	}
	return nil
}
