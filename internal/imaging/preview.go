package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/ppmfill/internal/floodfill"
	"github.com/ironsheep/ppmfill/internal/raster"
)

// PreviewOptions controls how a raster is rendered to PNG.
type PreviewOptions struct {
	// MaxSize bounds the longest edge of the output. Zero keeps the source size.
	MaxSize int

	// Region names a part of the image to show ("top-left", "center", ...).
	// Empty shows the whole image.
	Region string

	// GridSpacing draws a row/col grid every GridSpacing source pixels. Zero
	// disables the grid.
	GridSpacing int

	// GridColor is a hex color for grid lines; empty selects red.
	GridColor string

	// Highlight tints the pixels of a region, typically one returned by
	// floodfill.Region.
	Highlight *floodfill.Mask

	// HighlightColor is a hex color for the tint; empty selects magenta.
	HighlightColor string
}

// PreviewResult contains the rendered PNG.
type PreviewResult struct {
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	SourceWidth  int     `json:"source_width"`
	SourceHeight int     `json:"source_height"`
	Scale        float64 `json:"scale"`
	ImageBase64  string  `json:"image_base64"`
	MimeType     string  `json:"mime_type"`
}

// Preview renders m as a base64 PNG. Overlays are drawn at source
// resolution before cropping and scaling, so grid labels always name source
// coordinates. Downscaling uses nearest-neighbor sampling so that region
// edges stay crisp.
func Preview(m *raster.Raster, opts PreviewOptions) (*PreviewResult, error) {
	if opts.MaxSize < 0 {
		return nil, fmt.Errorf("max size must not be negative, got %d", opts.MaxSize)
	}
	if opts.GridSpacing < 0 {
		return nil, fmt.Errorf("grid spacing must not be negative, got %d", opts.GridSpacing)
	}

	img := m.ToNRGBA()

	if opts.Highlight != nil {
		tint := color.NRGBA{R: 255, B: 255, A: 255}
		if opts.HighlightColor != "" {
			c, err := ParseHexColor(opts.HighlightColor)
			if err != nil {
				return nil, err
			}
			tint = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
		}
		highlight(img, opts.Highlight, tint)
	}

	if opts.GridSpacing > 0 {
		lines := color.NRGBA{R: 255, A: 255}
		if opts.GridColor != "" {
			c, err := ParseHexColor(opts.GridColor)
			if err != nil {
				return nil, err
			}
			lines = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
		}
		drawGrid(img, opts.GridSpacing, lines)
	}

	if opts.Region != "" {
		rect, err := RegionRect(m.Width, m.Height, opts.Region)
		if err != nil {
			return nil, err
		}
		img = imaging.Crop(img, rect)
	}

	scale := 1.0
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); opts.MaxSize > 0 && (w > opts.MaxSize || h > opts.MaxSize) {
		img = imaging.Fit(img, opts.MaxSize, opts.MaxSize, imaging.NearestNeighbor)
		scale = float64(img.Bounds().Dx()) / float64(w)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:        img.Bounds().Dx(),
		Height:       img.Bounds().Dy(),
		SourceWidth:  m.Width,
		SourceHeight: m.Height,
		Scale:        scale,
		ImageBase64:  base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:     "image/png",
	}, nil
}

// RegionRect maps a named region of a width x height image to a rectangle
// with X as column and Y as row.
func RegionRect(width, height int, region string) (image.Rectangle, error) {
	midX := width / 2
	midY := height / 2

	var x1, y1, x2, y2 int

	switch region {
	case "top-left":
		x1, y1, x2, y2 = 0, 0, midX, midY
	case "top-right":
		x1, y1, x2, y2 = midX, 0, width, midY
	case "bottom-left":
		x1, y1, x2, y2 = 0, midY, midX, height
	case "bottom-right":
		x1, y1, x2, y2 = midX, midY, width, height
	case "top-half":
		x1, y1, x2, y2 = 0, 0, width, midY
	case "bottom-half":
		x1, y1, x2, y2 = 0, midY, width, height
	case "left-half":
		x1, y1, x2, y2 = 0, 0, midX, height
	case "right-half":
		x1, y1, x2, y2 = midX, 0, width, height
	case "center":
		// Center 50% of the image
		qW := width / 4
		qH := height / 4
		x1, y1, x2, y2 = qW, qH, width-qW, height-qH
	default:
		return image.Rectangle{}, fmt.Errorf("unknown region: %s", region)
	}

	if x1 >= x2 || y1 >= y2 {
		return image.Rectangle{}, fmt.Errorf("region %s of a %dx%d image is empty", region, width, height)
	}
	return image.Rect(x1, y1, x2, y2), nil
}

// highlight blends tint 50/50 into every pixel of mask.
func highlight(img *image.NRGBA, mask *floodfill.Mask, tint color.NRGBA) {
	b := mask.Bounds()
	for row := b.Min.Y; row < b.Max.Y; row++ {
		for col := b.Min.X; col < b.Max.X; col++ {
			if !mask.Contains(row, col) {
				continue
			}
			i := img.PixOffset(col, row)
			img.Pix[i+0] = uint8((uint16(img.Pix[i+0]) + uint16(tint.R)) / 2)
			img.Pix[i+1] = uint8((uint16(img.Pix[i+1]) + uint16(tint.G)) / 2)
			img.Pix[i+2] = uint8((uint16(img.Pix[i+2]) + uint16(tint.B)) / 2)
		}
	}
}
