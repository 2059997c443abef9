// Package floodfill replaces the 4-connected region of uniform color around a
// seed pixel of a raster.Raster.
//
// The region grows through up, down, left and right steps only, never leaves
// the raster and includes exactly the pixels whose color equals the seed's
// color as it was before the fill started. Traversal uses an explicit stack
// of pixel indices and a visited bitset, so region size is bounded by heap
// memory rather than call depth.
package floodfill

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/ppmfill/internal/raster"
)

// ErrSeedOutOfBounds is matched by every SeedError.
var ErrSeedOutOfBounds = errors.New("seed outside raster bounds")

// SeedError reports a seed coordinate outside [0,Height) x [0,Width).
type SeedError struct {
	Row, Col      int
	Width, Height int
}

func (e *SeedError) Error() string {
	return fmt.Sprintf("seed (%d,%d) outside %dx%d raster", e.Row, e.Col, e.Width, e.Height)
}

func (e *SeedError) Unwrap() error { return ErrSeedOutOfBounds }

// Result describes what a fill changed.
type Result struct {
	// Origin is the seed color before the fill.
	Origin raster.Color `json:"origin"`

	// Filled is the number of pixels recolored. Zero when NoOp is set.
	Filled int `json:"filled"`

	// NoOp is set when the seed already had the target color.
	NoOp bool `json:"no_op"`

	// Bounds is the smallest rectangle containing the region, with X as
	// column and Y as row (Max exclusive). Empty when NoOp is set.
	Bounds image.Rectangle `json:"bounds"`
}

// Fill recolors the region containing (row, col) to target in place.
//
// An out-of-range seed returns a *SeedError and leaves m untouched. When the
// seed pixel already equals target nothing is modified and the result has
// NoOp set, which also makes a repeated fill with the same arguments a no-op.
func Fill(m *raster.Raster, row, col int, target raster.Color) (Result, error) {
	if !m.InBounds(row, col) {
		return Result{}, &SeedError{Row: row, Col: col, Width: m.Width, Height: m.Height}
	}

	origin := m.At(row, col)
	if origin == target {
		return Result{Origin: origin, NoOp: true}, nil
	}

	pix := m.Pix()
	res := Result{Origin: origin}
	res.Bounds = walk(m, row, col, origin, func(i int) {
		p := i * raster.Channels
		pix[p], pix[p+1], pix[p+2] = target.R, target.G, target.B
		res.Filled++
	})
	return res, nil
}

// Region returns the pixels Fill would recolor, without modifying m.
func Region(m *raster.Raster, row, col int) (*Mask, error) {
	if !m.InBounds(row, col) {
		return nil, &SeedError{Row: row, Col: col, Width: m.Width, Height: m.Height}
	}

	mask := newMask(m.Width, m.Height)
	mask.bounds = walk(m, row, col, m.At(row, col), func(i int) {
		mask.set(i)
		mask.count++
	})
	return mask, nil
}

// walk visits every pixel of the region seeded at (row, col) exactly once
// and calls visit with its pixel index. A pixel is marked seen when pushed,
// so the stack never holds more entries than the region has pixels.
func walk(m *raster.Raster, row, col int, origin raster.Color, visit func(int)) image.Rectangle {
	w, h := m.Width, m.Height
	pix := m.Pix()
	seen := newBitset(w * h)

	matches := func(i int) bool {
		p := i * raster.Channels
		return pix[p] == origin.R && pix[p+1] == origin.G && pix[p+2] == origin.B
	}

	minR, maxR, minC, maxC := row, row, col, col

	start := row*w + col
	seen.set(start)
	stack := make([]int, 1, 1024)
	stack[0] = start

	push := func(i int) {
		if seen.get(i) || !matches(i) {
			return
		}
		seen.set(i)
		stack = append(stack, i)
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		r, c := i/w, i%w
		if r < minR {
			minR = r
		}
		if r > maxR {
			maxR = r
		}
		if c < minC {
			minC = c
		}
		if c > maxC {
			maxC = c
		}

		// Neighbors are tested before visit recolors i, and a recolored
		// pixel is always already seen, so matches only sees original colors.
		if r > 0 {
			push(i - w)
		}
		if r < h-1 {
			push(i + w)
		}
		if c > 0 {
			push(i - 1)
		}
		if c < w-1 {
			push(i + 1)
		}

		visit(i)
	}

	return image.Rect(minC, minR, maxC+1, maxR+1)
}
