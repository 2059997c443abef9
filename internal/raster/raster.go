package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/clone"
)

// DefaultMaxPixels bounds the pixel count a Raster may allocate when the
// caller does not supply its own limit. At 3 bytes per pixel this caps a
// single image buffer at 300MB.
const DefaultMaxPixels = 100_000_000

// Channels is the number of samples stored per pixel.
const Channels = 3

// Encoding selects the pixel-data representation used when the Raster is
// serialized.
type Encoding int

const (
	// Invalid is the zero Encoding. Encoding an Invalid raster fails.
	Invalid Encoding = iota
	// Text stores samples as whitespace-separated decimal integers (P3).
	Text
	// Binary stores samples as raw bytes (P6).
	Binary
)

// Tag returns the magic number written at the top of a file in this encoding,
// or an empty string for an unknown encoding.
func (e Encoding) Tag() string {
	switch e {
	case Text:
		return "P3"
	case Binary:
		return "P6"
	}
	return ""
}

func (e Encoding) String() string {
	switch e {
	case Text:
		return "text"
	case Binary:
		return "binary"
	}
	return fmt.Sprintf("encoding(%d)", int(e))
}

// Valid reports whether e is one of the two serializable encodings.
func (e Encoding) Valid() bool {
	return e == Text || e == Binary
}

// ParseEncoding maps a magic number or an encoding name ("P3", "p6", "text",
// "binary") to an Encoding. It returns Invalid and false for anything else.
func ParseEncoding(s string) (Encoding, bool) {
	switch s {
	case "P3", "p3", "text":
		return Text, true
	case "P6", "p6", "binary":
		return Binary, true
	}
	return Invalid, false
}

// Color is an 8-bit RGB triple.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex returns the color as "#RRGGBB".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// RGBA implements color.Color with a fully opaque alpha.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// ErrAllocation is matched by every AllocationError.
var ErrAllocation = errors.New("raster allocation failed")

// AllocationError reports that the pixel buffer for a Raster could not be
// obtained, either because the requested size overflows or because it exceeds
// the configured pixel limit.
type AllocationError struct {
	Width     int
	Height    int
	MaxPixels int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("cannot allocate %dx%d raster (limit %d pixels)", e.Width, e.Height, e.MaxPixels)
}

// Unwrap lets errors.Is(err, ErrAllocation) match.
func (e *AllocationError) Unwrap() error {
	return ErrAllocation
}

// Raster is a decoded PPM image.
//
// Width and Height never change after New returns. MaxValue is carried
// through from the source header and written back unchanged; it is not
// enforced against the samples. Comment holds the verbatim comment line
// including its leading '#', or is empty when the source had none.
type Raster struct {
	Width    int
	Height   int
	MaxValue int
	Encoding Encoding
	Comment  string

	pix      []uint8
	released bool
}

// New allocates a zeroed Raster of the given dimensions.
//
// maxPixels limits width*height; a value <= 0 selects DefaultMaxPixels.
// Non-positive dimensions, an overflowing size or a size above the limit
// return an *AllocationError and no buffer is allocated.
func New(width, height, maxPixels int) (*Raster, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	allocErr := &AllocationError{Width: width, Height: height, MaxPixels: maxPixels}
	if width <= 0 || height <= 0 {
		return nil, allocErr
	}
	if width > math.MaxInt/height || width*height > maxPixels || width*height > math.MaxInt/Channels {
		return nil, allocErr
	}

	return &Raster{
		Width:    width,
		Height:   height,
		MaxValue: 255,
		Encoding: Binary,
		pix:      make([]uint8, width*height*Channels),
	}, nil
}

// InBounds reports whether (row, col) addresses a pixel of m.
func (m *Raster) InBounds(row, col int) bool {
	return row >= 0 && row < m.Height && col >= 0 && col < m.Width
}

// Offset returns the index of the red sample of (row, col) in Pix.
func (m *Raster) Offset(row, col int) int {
	return (row*m.Width + col) * Channels
}

// At returns the color of the pixel at (row, col).
func (m *Raster) At(row, col int) Color {
	p := m.Pix()
	i := m.Offset(row, col)
	return Color{R: p[i], G: p[i+1], B: p[i+2]}
}

// Set overwrites the pixel at (row, col).
func (m *Raster) Set(row, col int, c Color) {
	p := m.Pix()
	i := m.Offset(row, col)
	p[i], p[i+1], p[i+2] = c.R, c.G, c.B
}

// Pix exposes the interleaved sample buffer. It panics once the Raster has
// been released.
func (m *Raster) Pix() []uint8 {
	if m.released {
		panic("raster: use of released raster")
	}
	return m.pix
}

// Release drops the pixel buffer. It is safe to call more than once.
func (m *Raster) Release() {
	m.pix = nil
	m.released = true
}

// Released reports whether Release has been called.
func (m *Raster) Released() bool {
	return m.released
}

// Clone returns a deep copy of m with its own pixel buffer.
func (m *Raster) Clone() *Raster {
	c := *m
	c.pix = append([]uint8(nil), m.Pix()...)
	return &c
}

// ToNRGBA converts the raster to an opaque *image.NRGBA where x is the column
// and y is the row.
func (m *Raster) ToNRGBA() *image.NRGBA {
	p := m.Pix()
	img := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i, j := 0, 0; i < len(p); i, j = i+Channels, j+4 {
		img.Pix[j] = p[i]
		img.Pix[j+1] = p[i+1]
		img.Pix[j+2] = p[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// FromImage builds a Binary raster from any image. Alpha is discarded after
// conversion to premultiplied RGBA, so translucent pixels darken.
func FromImage(img image.Image, maxPixels int) (*Raster, error) {
	rgba := clone.AsRGBA(img)
	bounds := rgba.Bounds()

	m, err := New(bounds.Dx(), bounds.Dy(), maxPixels)
	if err != nil {
		return nil, err
	}

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			src := rgba.PixOffset(x+bounds.Min.X, y+bounds.Min.Y)
			dst := m.Offset(y, x)
			m.pix[dst] = rgba.Pix[src]
			m.pix[dst+1] = rgba.Pix[src+1]
			m.pix[dst+2] = rgba.Pix[src+2]
		}
	}
	return m, nil
}
