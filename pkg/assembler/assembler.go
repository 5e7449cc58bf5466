// Package assembler implements the package assembler: it lays out the
// h5p.json manifest, content/content.json, registered media, and every
// resolved library directory (copied verbatim) into a staging tree,
// then streams that tree into a single H5P zip archive.
package assembler

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bookforge/bookc/pkg/book"
	"github.com/bookforge/bookc/pkg/catalog"
	mmap "github.com/edsrzf/mmap-go"
	"github.com/otiai10/copy"
)

// mmapThreshold is the file size at or above which library files are added
// to the archive via a memory map instead of a full read.
const mmapThreshold = 4 << 20 // 4MiB

// fixedModTime pins every zip entry's modification time so that two
// builds from identical input produce byte-identical archives.
var fixedModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// manifest is the h5p.json root object (the subset of the H5P
// manifest spec this compiler needs to emit).
type manifest struct {
	Title                 string        `json:"title"`
	Language              string        `json:"language"`
	MainLibrary           string        `json:"mainLibrary"`
	License               string        `json:"license"`
	EmbedTypes            []string      `json:"embedTypes"`
	PreloadedDependencies []manifestDep `json:"preloadedDependencies"`
}

type manifestDep struct {
	MachineName  string `json:"machineName"`
	MajorVersion int    `json:"majorVersion"`
	MinorVersion int    `json:"minorVersion"`
}

// Input bundles everything a build produces that the assembler needs
// to turn into an archive.
type Input struct {
	Book        *book.Book
	Media       *book.MediaManifest
	Libraries   []*catalog.Resolved
	MainLibrary book.LibraryRef
}

// Assembler writes the final H5P archive for a completed build.
type Assembler struct{}

// New creates an Assembler.
func New() *Assembler {
	return &Assembler{}
}

// Assemble stages input into a temporary directory and streams it
// into a zip archive at outputPath, committing atomically (write to a
// sibling temp file, then rename) so a reader never observes a
// partial archive. Given identical input the resulting archive's
// entry set and ordering are deterministic.
func (a *Assembler) Assemble(ctx context.Context, input *Input, outputPath string) error {
	stagingDir, err := os.MkdirTemp(filepath.Dir(outputPath), ".bookc-stage-*")
	if err != nil {
		return fmt.Errorf("assembler: create staging dir: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	if err := a.stage(input, stagingDir); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(outputPath), ".bookc-*.h5p")
	if err != nil {
		return fmt.Errorf("assembler: create temp archive: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if err := writeZip(tmpFile, stagingDir); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("assembler: close temp archive: %w", err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		return fmt.Errorf("assembler: commit archive: %w", err)
	}
	return nil
}

func (a *Assembler) stage(input *Input, stagingDir string) error {
	contentDir := filepath.Join(stagingDir, "content")
	if err := os.MkdirAll(contentDir, 0o755); err != nil {
		return fmt.Errorf("assembler: create content dir: %w", err)
	}

	contentJSON, err := json.MarshalIndent(input.Book, "", "  ")
	if err != nil {
		return fmt.Errorf("assembler: marshal content.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(contentDir, "content.json"), contentJSON, 0o644); err != nil {
		return fmt.Errorf("assembler: write content.json: %w", err)
	}

	for _, entry := range input.Media.Entries() {
		dest := filepath.Join(contentDir, filepath.FromSlash(entry.CanonicalPath))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("assembler: create media dir for %s: %w", entry.CanonicalPath, err)
		}
		if err := os.WriteFile(dest, entry.Bytes, 0o644); err != nil {
			return fmt.Errorf("assembler: write media %s: %w", entry.CanonicalPath, err)
		}
	}

	// input.Libraries arrives in catalog.ResolveAll's topological order
	// (dependencies before dependents); preserve it verbatim rather
	// than re-sorting, per the archive's ordering guarantee.
	deps := make([]manifestDep, 0, len(input.Libraries))
	for _, lib := range input.Libraries {
		deps = append(deps, manifestDep{
			MachineName:  lib.Ref.MachineName,
			MajorVersion: lib.Ref.MajorVersion,
			MinorVersion: lib.Ref.MinorVersion,
		})

		libDirName := fmt.Sprintf("%s-%d.%d", lib.Ref.MachineName, lib.Ref.MajorVersion, lib.Ref.MinorVersion)
		dest := filepath.Join(stagingDir, libDirName)
		if err := copy.Copy(lib.Dir, dest); err != nil {
			return fmt.Errorf("assembler: stage library %s: %w", libDirName, err)
		}
	}

	m := manifest{
		Title:                 input.Book.Title,
		Language:              input.Book.Language,
		MainLibrary:           input.MainLibrary.MachineName,
		License:               "U",
		EmbedTypes:            []string{"div"},
		PreloadedDependencies: deps,
	}
	manifestJSON, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("assembler: marshal h5p.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(stagingDir, "h5p.json"), manifestJSON, 0o644); err != nil {
		return fmt.Errorf("assembler: write h5p.json: %w", err)
	}

	return nil
}

// writeZip walks stagingDir and writes every regular file into zw as
// an archive entry named by its path relative to stagingDir, using
// forward slashes regardless of host OS. Directories never get their
// own entry: an empty directory produces no archive entry at all.
func writeZip(w io.Writer, stagingDir string) error {
	zw := zip.NewWriter(w)

	var paths []string
	err := filepath.WalkDir(stagingDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return fmt.Errorf("assembler: walk staging dir: %w", err)
	}
	sort.Strings(paths)

	for _, p := range paths {
		rel, err := filepath.Rel(stagingDir, p)
		if err != nil {
			return fmt.Errorf("assembler: relativize %s: %w", p, err)
		}
		if err := addFile(zw, p, filepath.ToSlash(rel)); err != nil {
			return err
		}
	}

	return zw.Close()
}

// addFile writes the contents of diskPath into zw under archiveName.
// Files at or above mmapThreshold are memory-mapped rather than read
// in full, so a handful of large library assets don't force the
// assembler to hold the whole archive's bytes in the heap at once.
func addFile(zw *zip.Writer, diskPath, archiveName string) error {
	info, err := os.Stat(diskPath)
	if err != nil {
		return fmt.Errorf("assembler: stat %s: %w", diskPath, err)
	}

	header := &zip.FileHeader{
		Name:   archiveName,
		Method: zip.Deflate,
	}
	header.SetMode(info.Mode())
	header.Modified = fixedModTime

	entry, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("assembler: create entry %s: %w", archiveName, err)
	}

	if info.Size() < mmapThreshold {
		data, err := os.ReadFile(diskPath)
		if err != nil {
			return fmt.Errorf("assembler: read %s: %w", diskPath, err)
		}
		_, err = entry.Write(data)
		return err
	}

	f, err := os.Open(diskPath)
	if err != nil {
		return fmt.Errorf("assembler: open %s: %w", diskPath, err)
	}
	defer f.Close()

	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return fmt.Errorf("assembler: mmap %s: %w", diskPath, err)
	}
	defer mapped.Unmap()

	_, err = entry.Write(mapped)
	return err
}
