package imaging

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/ironsheep/ppmfill/internal/ppm"
	"github.com/ironsheep/ppmfill/internal/raster"
)

// ErrNotLoaded is returned when an operation names a path that has not been
// loaded into the cache.
var ErrNotLoaded = errors.New("image not loaded")

// Entry is a cached, mutable raster together with the lock that guards it.
//
// Rasters are edited in place by flood fills, so every access goes through
// View (shared) or Update (exclusive).
type Entry struct {
	mu       sync.RWMutex
	path     string
	m        *raster.Raster
	modified bool
}

// Path returns the file the entry was loaded from.
func (e *Entry) Path() string { return e.path }

// View calls fn with the raster under a read lock. fn must not modify the
// raster or retain it after returning.
func (e *Entry) View(fn func(m *raster.Raster) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.m)
}

// Update calls fn with the raster under the write lock. When fn returns
// changed == true the entry is marked as modified until the next Save to its
// own path.
func (e *Entry) Update(fn func(m *raster.Raster) (changed bool, err error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	changed, err := fn(e.m)
	if changed {
		e.modified = true
	}
	return err
}

// Modified reports whether the raster differs from the file it was loaded
// from.
func (e *Entry) Modified() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.modified
}

// RasterCache keeps decoded rasters keyed by path so that a sequence of
// operations (inspect, fill, preview, save) works on one in-memory copy.
//
// RasterCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache := imaging.NewRasterCache(raster.DefaultMaxPixels)
//	entry, err := cache.Load("/path/to/image.ppm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = entry.Update(func(m *raster.Raster) (bool, error) {
//	    res, err := floodfill.Fill(m, 0, 0, raster.Color{G: 255})
//	    return res.Filled > 0, err
//	})
type RasterCache struct {
	mu        sync.RWMutex
	maxPixels int
	entries   map[string]*Entry
}

// NewRasterCache creates an empty cache. maxPixels bounds the size of images
// it will decode; zero selects raster.DefaultMaxPixels.
func NewRasterCache(maxPixels int) *RasterCache {
	return &RasterCache{
		maxPixels: maxPixels,
		entries:   make(map[string]*Entry),
	}
}

// Load returns the cached entry for path, decoding the file on first use.
//
// Paths ending in ".gz" or ".zst" are decompressed transparently. The path
// string is used verbatim as the key, so relative and absolute spellings of
// one file are cached separately.
func (c *RasterCache) Load(path string) (*Entry, error) {
	c.mu.RLock()
	if e, ok := c.entries[path]; ok {
		c.mu.RUnlock()
		return e, nil
	}
	c.mu.RUnlock()

	m, err := ppm.ReadFile(path, c.maxPixels)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have loaded it meanwhile; keep the first copy so
	// edits made through it are not lost.
	if e, ok := c.entries[path]; ok {
		m.Release()
		return e, nil
	}
	e := &Entry{path: path, m: m}
	c.entries[path] = e
	return e, nil
}

// Get returns the entry for an already-loaded path without touching disk.
func (c *RasterCache) Get(path string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, path)
	}
	return e, nil
}

// Evict drops path from the cache, discarding unsaved edits. Evicting a path
// that is not cached does nothing. Entries already handed out stay usable.
func (c *RasterCache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Clear evicts every entry.
func (c *RasterCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*Entry)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *RasterCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SaveResult describes a completed save.
type SaveResult struct {
	Path          string `json:"path"`
	Format        string `json:"format"`
	Compression   string `json:"compression"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// Save writes the entry's raster to dest, or back to its own path when dest
// is empty. enc overrides the stored encoding when it is valid; the cached
// raster's own encoding is updated to match so later saves stay consistent.
//
// The cached raster is not released: a copy is handed to the encoder.
func Save(e *Entry, dest string, enc raster.Encoding) (*SaveResult, error) {
	if dest == "" {
		dest = e.path
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if enc.Valid() {
		e.m.Encoding = enc
	}
	out := e.m.Clone()
	format := out.Encoding.Tag()
	if err := ppm.WriteFile(dest, out); err != nil {
		return nil, err
	}
	if dest == e.path {
		e.modified = false
	}

	stat, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return &SaveResult{
		Path:          dest,
		Format:        format,
		Compression:   ppm.CompressionFor(dest).String(),
		FileSizeBytes: stat.Size(),
	}, nil
}

// ImageInfo contains metadata about a loaded PPM image.
type ImageInfo struct {
	// Width is the image width in pixels (number of columns).
	Width int `json:"width"`

	// Height is the image height in pixels (number of rows).
	Height int `json:"height"`

	// Format is the magic number: "P3" (text) or "P6" (binary).
	Format string `json:"format"`

	// Encoding is "text" or "binary".
	Encoding string `json:"encoding"`

	// MaxValue is the maximum sample value declared in the header.
	MaxValue int `json:"max_value"`

	// Comment is the header comment line including '#', if any.
	Comment string `json:"comment,omitempty"`

	// Compression is "none", "gzip" or "zstd", chosen by file extension.
	Compression string `json:"compression"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// Modified reports unsaved in-memory edits.
	Modified bool `json:"modified"`
}

// LoadImageInfo loads path into the cache if needed and describes it.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a valid P3 or P6 image
func LoadImageInfo(cache *RasterCache, path string) (*ImageInfo, error) {
	e, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := &ImageInfo{
		Compression:   ppm.CompressionFor(path).String(),
		FileSizeBytes: stat.Size(),
		Modified:      e.Modified(),
	}
	_ = e.View(func(m *raster.Raster) error {
		info.Width = m.Width
		info.Height = m.Height
		info.Format = m.Encoding.Tag()
		info.Encoding = m.Encoding.String()
		info.MaxValue = m.MaxValue
		info.Comment = m.Comment
		return nil
	})
	return info, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of a cached image, loading it first
// when necessary.
func GetDimensions(cache *RasterCache, path string) (*DimensionsResult, error) {
	e, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	var d DimensionsResult
	_ = e.View(func(m *raster.Raster) error {
		d = DimensionsResult{Width: m.Width, Height: m.Height}
		return nil
	})
	return &d, nil
}
