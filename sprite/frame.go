// Package sprite converts frame images into terminal cells
package sprite

import (
	"bytes"
	"fmt"
	"image/png"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/critter/asset"
)

// Cell is one styled terminal character
type Cell struct {
	Rune  rune
	Style tcell.Style
}

// Frame is a rectangular grid of cells, row-major
type Frame struct {
	Name   string
	Width  int
	Height int
	Cells  []Cell
}

// At returns the cell at x,y; out of range yields a blank default cell
func (f *Frame) At(x, y int) Cell {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return Cell{Rune: ' ', Style: tcell.StyleDefault}
	}
	return f.Cells[y*f.Width+x]
}

// FromText builds a frame from pre-rendered text art with the default style
// Tabs expand to four spaces; trailing blank lines are dropped
func FromText(data []byte) *Frame {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")
	lines := strings.Split(strings.TrimRight(text, "\n "), "\n")

	width := 0
	for _, l := range lines {
		width = max(width, utf8.RuneCountInString(l))
	}
	f := &Frame{Width: width, Height: len(lines), Cells: make([]Cell, width*len(lines))}
	for i := range f.Cells {
		f.Cells[i] = Cell{Rune: ' ', Style: tcell.StyleDefault}
	}
	for y, l := range lines {
		x := 0
		for _, r := range l {
			f.Cells[y*width+x].Rune = r
			x++
		}
	}
	return f
}

// Decoder returns an asset.DecodeFunc producing frames width columns wide
func Decoder(width int) asset.DecodeFunc[*Frame] {
	return func(name, ext string, data []byte) (*Frame, error) {
		var f *Frame
		switch ext {
		case "png":
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("png: %w", err)
			}
			f = FromImage(img, width)
		case "txt":
			if !utf8.Valid(data) {
				return nil, fmt.Errorf("text frame is not valid UTF-8")
			}
			f = FromText(data)
		default:
			return nil, fmt.Errorf("unsupported frame encoding %q", ext)
		}
		f.Name = strings.TrimSuffix(path.Base(name), path.Ext(name))
		return f, nil
	}
}
