package imaging

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/ironsheep/ppmfill/internal/ppm"
	"github.com/ironsheep/ppmfill/internal/raster"
)

// ImportResult describes an image converted to PPM.
type ImportResult struct {
	Source        string `json:"source"`
	SourceFormat  string `json:"source_format"`
	Path          string `json:"path"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
	Compression   string `json:"compression"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// Import decodes src in any format registered with package image (PNG, JPEG,
// GIF and PPM itself) and writes it to dest as PPM. enc selects P3 or P6;
// Invalid means P6. Alpha is dropped after premultiplying.
//
// A cached copy of dest is evicted once the file is written, so the next
// Load sees the imported pixels.
func Import(cache *RasterCache, src, dest string, enc raster.Encoding) (*ImportResult, error) {
	if dest == "" {
		return nil, fmt.Errorf("destination path required")
	}

	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", src, err)
	}

	m, err := raster.FromImage(img, cache.maxPixels)
	if err != nil {
		return nil, err
	}
	if enc.Valid() {
		m.Encoding = enc
	}

	res := &ImportResult{
		Source:       src,
		SourceFormat: format,
		Path:         dest,
		Width:        m.Width,
		Height:       m.Height,
		Format:       m.Encoding.Tag(),
		Compression:  ppm.CompressionFor(dest).String(),
	}
	if err := ppm.WriteFile(dest, m); err != nil {
		return nil, err
	}
	cache.Evict(dest)

	stat, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	res.FileSizeBytes = stat.Size()
	return res, nil
}
