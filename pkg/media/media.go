// Package media loads media assets referenced by a book definition,
// from either the local filesystem or an HTTP(S) URL, and exposes
// them as raw bytes plus a detected MIME type and file extension.
package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// NotFoundError reports a local media path that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("media: %q not found", e.Path)
}

// FetchError reports a failed remote media fetch.
type FetchError struct {
	URL    string
	Status string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("media: fetch %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("media: fetch %q: %s", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Asset is a loaded media buffer plus its detected kind information.
type Asset struct {
	Bytes     []byte
	MIME      string
	Extension string
}

// Loader resolves media references against a base directory for local
// paths, and over HTTP(S) for absolute URLs.
type Loader struct {
	BaseDir    string
	HTTPClient *http.Client
}

// NewLoader creates a loader. baseDir is used to resolve relative
// local paths; client defaults to a 30s-timeout client when nil.
func NewLoader(baseDir string, client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{BaseDir: baseDir, HTTPClient: client}
}

// Load resolves ref (a local path or an absolute HTTP(S) URL) into an
// Asset.
func (l *Loader) Load(ctx context.Context, ref string) (*Asset, error) {
	if isRemote(ref) {
		return l.loadRemote(ctx, ref)
	}
	return l.loadLocal(ref)
}

func isRemote(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func (l *Loader) loadLocal(ref string) (*Asset, error) {
	path := ref
	if !filepath.IsAbs(path) && l.BaseDir != "" {
		path = filepath.Join(l.BaseDir, ref)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("media: read %q: %w", path, err)
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	mimeType := mime.TypeByExtension("." + ext)
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return &Asset{Bytes: data, MIME: mimeType, Extension: ext}, nil
}

func (l *Loader) loadRemote(ctx context.Context, ref string) (*Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("media: build request for %q: %w", ref, err)
	}

	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: ref, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}

	mimeType := resp.Header.Get("Content-Type")
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	ext := extensionForMIME(mimeType, ref)

	return &Asset{Bytes: data, MIME: mimeType, Extension: ext}, nil
}

func extensionForMIME(mimeType, ref string) string {
	if u, err := url.Parse(ref); err == nil {
		if e := strings.TrimPrefix(filepath.Ext(u.Path), "."); e != "" {
			return e
		}
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return "bin"
	}
	return strings.TrimPrefix(exts[0], ".")
}
