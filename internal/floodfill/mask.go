package floodfill

import "image"

// bitset stores one bit per pixel index.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) get(i int) bool {
	return b[i>>6]&(1<<(uint(i)&63)) != 0
}

func (b bitset) set(i int) {
	b[i>>6] |= 1 << (uint(i) & 63)
}

// Mask is the set of pixels belonging to a region.
type Mask struct {
	width  int
	height int
	bits   bitset
	count  int
	bounds image.Rectangle
}

func newMask(width, height int) *Mask {
	return &Mask{
		width:  width,
		height: height,
		bits:   newBitset(width * height),
	}
}

func (m *Mask) set(i int) { m.bits.set(i) }

// Contains reports whether (row, col) is in the region. Coordinates outside
// the raster are never contained.
func (m *Mask) Contains(row, col int) bool {
	if row < 0 || row >= m.height || col < 0 || col >= m.width {
		return false
	}
	return m.bits.get(row*m.width + col)
}

// Count returns the number of pixels in the region.
func (m *Mask) Count() int { return m.count }

// Bounds returns the region's bounding box with X as column and Y as row.
func (m *Mask) Bounds() image.Rectangle { return m.bounds }
