// Package archive gives read access to report bundles - zip archives carrying
// report description together with the images it refers to.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to Walk
// The file argument is the zip.File structure for file in archive which satisfies
// match condition. If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk walks the all files in the archive which satisfy match condition,
// calling walkFn for each item.
func Walk(archive, pattern string, walkFn WalkFunc) error {
	b, err := Open(archive)
	if err != nil {
		return err
	}
	defer b.Close()
	return b.Walk(pattern, walkFn)
}

// Bundle is an opened archive. Files could be read concurrently.
type Bundle struct {
	name  string
	rc    *zip.ReadCloser
	files map[string]*zip.File
}

// Open opens archive and indexes its files. Archives with entries which
// could escape extraction directory (absolute paths or ".." components) are
// rejected as a whole.
func Open(archive string) (*Bundle, error) {
	rc, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	b := &Bundle{name: archive, rc: rc, files: make(map[string]*zip.File, len(rc.File))}
	for _, f := range rc.File {
		if !isSafePath(f.Name) {
			rc.Close()
			return nil, fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", f.Name)
		}
		if !f.FileInfo().IsDir() {
			b.files[path.Clean(f.Name)] = f
		}
	}
	return b, nil
}

// Name returns path to the archive.
func (b *Bundle) Name() string {
	return b.name
}

func (b *Bundle) Close() error {
	return b.rc.Close()
}

// Walk calls walkFn for every file which name starts with pattern, in
// archive order.
func (b *Bundle) Walk(pattern string, walkFn WalkFunc) error {
	for _, f := range b.rc.File {
		if !f.FileInfo().IsDir() && strings.HasPrefix(f.Name, pattern) {
			if err := walkFn(b.name, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Has reports whether file with given name exists in the archive.
func (b *Bundle) Has(name string) bool {
	_, ok := b.files[cleanName(name)]
	return ok
}

// ReadFile returns content of the named file. Names are relative to the
// archive root, leading "./" or "/" is ignored.
func (b *Bundle) ReadFile(name string) ([]byte, error) {
	f, ok := b.files[cleanName(name)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	return data, errors.Join(err, r.Close())
}

func cleanName(name string) string {
	return path.Clean(strings.TrimLeft(strings.ReplaceAll(name, `\`, "/"), "/"))
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
