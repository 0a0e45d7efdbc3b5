// Package render turns a canvas and a palette into the canonical SVG image and the
// JSON documents that describe editions and collections.
package render

import (
	"errors"
	"fmt"

	"github.com/zjrosen/dixel/internal/pixel"
)

var ErrRectOutOfBounds = errors.New("rect outside canvas")

// Rect is one horizontal run of identical palette indices.
type Rect struct {
	X     int
	Y     int
	Width int
	Index uint8
	Color pixel.Color
}

// Rects scans the canvas row by row and emits one Rect per maximal run. The
// canvas must be valid: an index outside the palette panics.
func Rects(canvas *pixel.Canvas, palette pixel.Palette) []Rect {
	rects := make([]Rect, 0, pixel.CanvasSize)
	for y := 0; y < pixel.CanvasSize; y++ {
		start := 0
		for x := 1; x <= pixel.CanvasSize; x++ {
			if x < pixel.CanvasSize && canvas.At(x, y) == canvas.At(start, y) {
				continue
			}
			idx := canvas.At(start, y)
			rects = append(rects, Rect{
				X:     start,
				Y:     y,
				Width: x - start,
				Index: idx,
				Color: palette[idx],
			})
			start = x
		}
	}
	return rects
}

// Rasterize paints rects back onto an empty canvas. Cells not covered stay 0.
func Rasterize(rects []Rect) (pixel.Canvas, error) {
	var c pixel.Canvas
	for _, r := range rects {
		if r.Y < 0 || r.Y >= pixel.CanvasSize || r.X < 0 || r.Width < 1 || r.X+r.Width > pixel.CanvasSize {
			return c, fmt.Errorf("%w: x=%d y=%d width=%d", ErrRectOutOfBounds, r.X, r.Y, r.Width)
		}
		for x := r.X; x < r.X+r.Width; x++ {
			c.Set(x, r.Y, r.Index)
		}
	}
	return c, nil
}
