package imaging

import (
	"fmt"
	"image"
	"image/color"
)

// drawGrid draws a line every spacing pixels in both directions and labels
// each intersection with its "row,col" coordinates.
func drawGrid(img *image.NRGBA, spacing int, lineColor color.NRGBA) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Vertical lines mark columns
	for col := spacing; col < width; col += spacing {
		for row := 0; row < height; row++ {
			img.SetNRGBA(col, row, lineColor)
		}
	}

	// Horizontal lines mark rows
	for row := spacing; row < height; row += spacing {
		for col := 0; col < width; col++ {
			img.SetNRGBA(col, row, lineColor)
		}
	}

	labelColor := color.NRGBA{255, 255, 255, 255}
	bgColor := color.NRGBA{0, 0, 0, 255}

	for row := spacing; row < height; row += spacing {
		for col := spacing; col < width; col += spacing {
			drawLabel(img, col+2, row+2, fmt.Sprintf("%d,%d", row, col), labelColor, bgColor)
		}
	}
}

// drawLabel draws text in a 3x5 pixel font with its top-left corner at
// (x, y). Only digits and ',' have glyphs; other runes leave a gap.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
	}

	bounds := img.Bounds()
	inside := func(px, py int) bool {
		return image.Pt(px, py).In(bounds)
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if inside(x+dx, y+dy) {
				img.SetNRGBA(x+dx, y+dy, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for gy, line := range glyph {
			for gx, bit := range line {
				if bit == '1' && inside(cx+gx, y+gy) {
					img.SetNRGBA(cx+gx, y+gy, fg)
				}
			}
		}
		cx += charWidth
	}
}
