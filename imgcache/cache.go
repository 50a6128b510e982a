// Package imgcache fetches and decodes every image a report references before
// layout starts. Results are kept in a read-only Cache keyed by the original
// reference string.
package imgcache

import (
	"fmt"
	"maps"
	"slices"
)

// Formats understood by PDF writer.
const (
	FormatJPG = "JPG"
	FormatPNG = "PNG"
)

// Entry is an image ready to be embedded: Data is in Format, Width and
// Height are in pixels.
type Entry struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Aspect returns height to width ratio.
func (e *Entry) Aspect() float64 {
	if e.Width <= 0 {
		return 1
	}
	return float64(e.Height) / float64(e.Width)
}

// ResolutionError is recorded for every reference which could not be
// fetched or decoded. Such image is drawn as placeholder.
type ResolutionError struct {
	Ref string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unable to resolve image %q: %v", shorten(e.Ref), e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Cache is safe for concurrent reads. Nil cache is empty.
type Cache struct {
	entries map[string]*Entry
	failed  map[string]error
}

func newCache() *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
		failed:  make(map[string]error),
	}
}

// Get returns resolved image, false if reference failed or was never
// requested.
func (c *Cache) Get(ref string) (*Entry, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.entries[ref]
	return e, ok
}

// Err returns resolution error for failed reference.
func (c *Cache) Err(ref string) error {
	if c == nil {
		return nil
	}
	return c.failed[ref]
}

// Len returns number of successfully resolved images.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Refs returns sorted successfully resolved references.
func (c *Cache) Refs() []string {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.entries))
}

// Failed returns sorted references which could not be resolved.
func (c *Cache) Failed() []string {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.failed))
}

// shorten keeps data URLs readable in logs.
func shorten(ref string) string {
	const limit = 64
	if len(ref) <= limit {
		return ref
	}
	return ref[:limit] + "..."
}
