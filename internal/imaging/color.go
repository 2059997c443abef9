package imaging

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/ppmfill/internal/raster"
)

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in multiple representations.
//
//   - Hex: Compact "#RRGGBB" string, the form accepted back as a fill target
//   - RGB: The exact 8-bit samples stored in the raster
//   - HSL: Perceptual color space for describing the color
type ColorResult struct {
	Hex string       `json:"hex"`
	RGB raster.Color `json:"rgb"`
	HSL HSLColor     `json:"hsl"`
}

// NewColorResult describes c in every supported representation.
func NewColorResult(c raster.Color) ColorResult {
	return ColorResult{
		Hex: c.Hex(),
		RGB: c,
		HSL: toHSL(c),
	}
}

// SampleColor returns the color stored at (row, col).
//
// Coordinates are 0-based with the origin at the top-left pixel:
//   - Valid row range: 0 to height-1
//   - Valid col range: 0 to width-1
//
// The samples are returned exactly as stored; the header's max value is not
// used to rescale them.
func SampleColor(m *raster.Raster, row, col int) (*ColorResult, error) {
	if !m.InBounds(row, col) {
		return nil, fmt.Errorf("coordinates (row %d, col %d) outside %dx%d image", row, col, m.Width, m.Height)
	}
	res := NewColorResult(m.At(row, col))
	return &res, nil
}

// LabeledPoint is a pixel coordinate with an optional descriptive label.
type LabeledPoint struct {
	Row   int
	Col   int
	Label string
}

// LabeledColorResult combines a color sample with its location and optional label.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	Row   int         `json:"row"`
	Col   int         `json:"col"`
	Color ColorResult `json:"color"`
}

// MultiColorResult contains color samples from multiple points, in input
// order.
type MultiColorResult struct {
	Samples []LabeledColorResult `json:"samples"`
}

// SampleColorsMulti samples several points in one call. Any out-of-bounds
// point fails the whole call and no partial results are returned.
func SampleColorsMulti(m *raster.Raster, points []LabeledPoint) (*MultiColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		c, err := SampleColor(m, p.Row, p.Col)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.Row, p.Col, err)
		}
		results = append(results, LabeledColorResult{
			Label: p.Label,
			Row:   p.Row,
			Col:   p.Col,
			Color: *c,
		})
	}

	return &MultiColorResult{Samples: results}, nil
}

// ColorFrequency is one palette entry.
type ColorFrequency struct {
	Hex        string       `json:"hex"`
	RGB        raster.Color `json:"rgb"`
	Pixels     int          `json:"pixels"`
	Percentage float64      `json:"percentage"`
}

// PaletteResult lists the most frequent exact colors of an image.
type PaletteResult struct {
	Colors         []ColorFrequency `json:"colors"`
	DistinctColors int              `json:"distinct_colors"`
}

// Palette counts exact colors and returns up to count of the most frequent,
// most common first. Ties are ordered by hex value so the output is stable.
//
// Colors are not quantized: flood fill matches exact samples, so two colors
// differing in one unit are reported separately.
func Palette(m *raster.Raster, count int) (*PaletteResult, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}

	counts := make(map[raster.Color]int)
	pix := m.Pix()
	for i := 0; i < len(pix); i += raster.Channels {
		counts[raster.Color{R: pix[i], G: pix[i+1], B: pix[i+2]}]++
	}

	total := float64(m.Width * m.Height)
	colors := make([]ColorFrequency, 0, len(counts))
	for c, n := range counts {
		colors = append(colors, ColorFrequency{
			Hex:        c.Hex(),
			RGB:        c,
			Pixels:     n,
			Percentage: math.Round(float64(n)/total*10000) / 100,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Pixels != colors[j].Pixels {
			return colors[i].Pixels > colors[j].Pixels
		}
		return colors[i].Hex < colors[j].Hex
	})

	distinct := len(colors)
	if len(colors) > count {
		colors = colors[:count]
	}

	return &PaletteResult{Colors: colors, DistinctColors: distinct}, nil
}

// ParseHexColor parses "#RRGGBB" (the leading '#' is optional, as is the
// case of the digits) or the short "#RGB" form.
func ParseHexColor(s string) (raster.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return raster.Color{}, fmt.Errorf("empty color string")
	}
	if s[0] != '#' {
		s = "#" + s
	}
	// colorful.Hex scans with Sscanf, which accepts a valid prefix and
	// ignores the rest, so the shape is checked here.
	if len(s) != 4 && len(s) != 7 {
		return raster.Color{}, fmt.Errorf("invalid hex color %q: want #RGB or #RRGGBB", s)
	}
	for _, ch := range s[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", ch) {
			return raster.Color{}, fmt.Errorf("invalid hex color %q: %q is not a hex digit", s, ch)
		}
	}

	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return raster.Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return raster.Color{R: r, G: g, B: b}, nil
}

func toHSL(c raster.Color) HSLColor {
	h, s, l := colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}.Hsl()

	if math.IsNaN(h) {
		h = 0
	}
	return HSLColor{
		H: int(h),
		S: int(s * 100),
		L: int(l * 100),
	}
}
