package sprite

import (
	"image"
	"image/color"

	"github.com/gdamore/tcell/v2"
)

// QuadrantChars maps 4-bit patterns to Unicode quadrant characters
// Bit order: 0=UL, 1=UR, 2=LL, 3=LR (1 = foreground)
var QuadrantChars = [16]rune{
	' ', // 0000 - empty
	'▘', // 0001 - upper-left
	'▝', // 0010 - upper-right
	'▀', // 0011 - upper half
	'▖', // 0100 - lower-left
	'▌', // 0101 - left half
	'▞', // 0110 - anti-diagonal
	'▛', // 0111 - UL + UR + LL
	'▗', // 1000 - lower-right
	'▚', // 1001 - diagonal
	'▐', // 1010 - right half
	'▜', // 1011 - UL + UR + LR
	'▄', // 1100 - lower half
	'▙', // 1101 - UL + LL + LR
	'▟', // 1110 - UR + LL + LR
	'█', // 1111 - full block
}

type rgb struct{ R, G, B uint8 }

// pixel is a sampled source pixel; transparent pixels show the terminal background
type pixel struct {
	c      rgb
	opaque bool
}

// FromImage converts img to a frame targetWidth columns wide using quadrant
// characters (2x2 pixels per cell), preserving aspect ratio for ~2:1 cells
func FromImage(img image.Image, targetWidth int) *Frame {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 || targetWidth <= 0 {
		return &Frame{}
	}

	outW := targetWidth
	outH := max(1, int(float64(targetWidth)*float64(srcH)/float64(srcW)*0.5))
	gridW, gridH := outW*2, outH*2

	f := &Frame{Width: outW, Height: outH, Cells: make([]Cell, outW*outH)}
	offsets := [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			var px [4]pixel
			for i, off := range offsets {
				sx := min(bounds.Min.X+((x*2+off[0])*srcW+srcW/2)/gridW, bounds.Max.X-1)
				sy := min(bounds.Min.Y+((y*2+off[1])*srcH+srcH/2)/gridH, bounds.Max.Y-1)
				px[i] = samplePixel(img.At(sx, sy))
			}
			f.Cells[y*outW+x] = bestQuadrant(px)
		}
	}
	return f
}

// bestQuadrant searches all 16 patterns for the lowest colour error
// A cell with any transparent pixel keeps the terminal background: its
// opaque pixels become the foreground pattern
func bestQuadrant(px [4]pixel) Cell {
	mask := 0
	for i := range px {
		if px[i].opaque {
			mask |= 1 << i
		}
	}
	if mask != 15 {
		if mask == 0 {
			return Cell{Rune: ' ', Style: tcell.StyleDefault}
		}
		fg, _, _ := patternColors(px, mask)
		return Cell{Rune: QuadrantChars[mask], Style: tcell.StyleDefault.Foreground(toColor(fg))}
	}

	bestErr := int(^uint(0) >> 1)
	bestPattern := 0
	var bestFg, bestBg rgb
	for pattern := 0; pattern < 16; pattern++ {
		fg, bg, errSum := patternColors(px, pattern)
		if errSum < bestErr {
			bestErr, bestPattern = errSum, pattern
			bestFg, bestBg = fg, bg
		}
	}

	style := tcell.StyleDefault.Background(toColor(bestBg))
	if bestPattern != 0 {
		style = style.Foreground(toColor(bestFg))
	}
	return Cell{Rune: QuadrantChars[bestPattern], Style: style}
}

// patternColors averages each group and sums squared error over opaque pixels
func patternColors(px [4]pixel, pattern int) (fg, bg rgb, totalErr int) {
	var fgSum, bgSum [3]int
	var fgN, bgN int

	for i := 0; i < 4; i++ {
		if !px[i].opaque {
			continue
		}
		sum, n := &bgSum, &bgN
		if pattern&(1<<i) != 0 {
			sum, n = &fgSum, &fgN
		}
		sum[0] += int(px[i].c.R)
		sum[1] += int(px[i].c.G)
		sum[2] += int(px[i].c.B)
		*n++
	}

	if fgN > 0 {
		fg = rgb{uint8(fgSum[0] / fgN), uint8(fgSum[1] / fgN), uint8(fgSum[2] / fgN)}
	}
	if bgN > 0 {
		bg = rgb{uint8(bgSum[0] / bgN), uint8(bgSum[1] / bgN), uint8(bgSum[2] / bgN)}
	}

	for i := 0; i < 4; i++ {
		if !px[i].opaque {
			continue
		}
		target := bg
		if pattern&(1<<i) != 0 {
			target = fg
		}
		totalErr += distanceSq(px[i].c, target)
	}
	return fg, bg, totalErr
}

func distanceSq(a, b rgb) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

// samplePixel un-premultiplies alpha; alpha below half counts as transparent
func samplePixel(c color.Color) pixel {
	r, g, b, a := c.RGBA()
	if a < 0x8000 {
		return pixel{}
	}
	return pixel{
		c:      rgb{uint8((r * 0xff) / a), uint8((g * 0xff) / a), uint8((b * 0xff) / a)},
		opaque: true,
	}
}

func toColor(c rgb) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
