package watch

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/catalog"
	"github.com/bookforge/bookc/pkg/handler"
	"github.com/bookforge/bookc/pkg/media"
	"github.com/bookforge/bookc/pkg/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type textHandler struct{}

func (textHandler) ContentType() string { return "text" }
func (textHandler) RequiredLibraries() []book.LibraryRef {
	return []book.LibraryRef{{MachineName: "H5P.AdvancedText", MajorVersion: 1, MinorVersion: 1}}
}
func (textHandler) ValidateItem(book.ContentItem) error { return nil }
func (textHandler) Process(ctx context.Context, hctx *handler.Context, item book.ContentItem) (*book.Fragment, error) {
	f := book.NewFragment("text", book.LibraryRef{MachineName: "H5P.AdvancedText", MajorVersion: 1, MinorVersion: 1})
	f.Params["text"] = "<p>hi</p>"
	return f, nil
}

func fakeLibraryZip(t *testing.T, machineName string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("library.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"machineName":"` + machineName + `","majorVersion":0,"minorVersion":0,"patchVersion":0,"preloadedDependencies":[]}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestOrchestrator(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/H5P.AdvancedText/1.1":
			w.Write(fakeLibraryZip(t, "H5P.AdvancedText"))
		case "/H5P.InteractiveBook/1.12":
			w.Write(fakeLibraryZip(t, "H5P.InteractiveBook"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	catalogRegistry := catalog.NewRegistry(srv.URL, dir, nil)
	handlers := handler.NewRegistry()
	require.NoError(t, handlers.Register(textHandler{}))

	return orchestrator.New(catalogRegistry, handlers, media.NewLoader(dir, nil), nil)
}

func writeDefinition(t *testing.T, path string) {
	t.Helper()
	def := `{
		"title": "Watched Book",
		"language": "en",
		"chapters": [{"title": "Ch1", "content": [{"type":"text","html":"<p>hi</p>"}]}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(def), 0o644))
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	defPath := filepath.Join(dir, "book.json")
	writeDefinition(t, defPath)
	outPath := filepath.Join(dir, "out.h5p")

	orch := newTestOrchestrator(t)
	w, err := New(defPath, outPath, orch, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// wait for the immediate initial build
	require.Eventually(t, func() bool {
		_, err := os.Stat(outPath)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	firstInfo, err := os.Stat(outPath)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	writeDefinition(t, defPath)

	require.Eventually(t, func() bool {
		info, err := os.Stat(outPath)
		return err == nil && info.ModTime().After(firstInfo.ModTime())
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestNew_DefaultsDebounce(t *testing.T) {
	dir := t.TempDir()
	defPath := filepath.Join(dir, "book.json")
	writeDefinition(t, defPath)

	orch := newTestOrchestrator(t)
	w, err := New(defPath, filepath.Join(dir, "out.h5p"), orch, 0)
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, w.debounce)
}
