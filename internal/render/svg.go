package render

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/zjrosen/dixel/internal/pixel"
)

// The viewBox matches pixel.CanvasSize.
const svgHeader = `<svg xmlns="http://www.w3.org/2000/svg" version="1.1" viewBox="0 0 24 24" shape-rendering="crispEdges">`

const svgFooter = `</svg>`

// SVG renders the canvas with the given palette. Output is byte-identical for
// identical inputs.
func SVG(canvas *pixel.Canvas, palette pixel.Palette) string {
	rects := Rects(canvas, palette)

	var b strings.Builder
	b.Grow(len(svgHeader) + len(svgFooter) + len(rects)*64)
	b.WriteString(svgHeader)
	for _, r := range rects {
		b.WriteString(`<rect x="`)
		b.WriteString(strconv.Itoa(r.X))
		b.WriteString(`" y="`)
		b.WriteString(strconv.Itoa(r.Y))
		b.WriteString(`" width="`)
		b.WriteString(strconv.Itoa(r.Width))
		b.WriteString(`" height="1" fill="`)
		b.WriteString(r.Color.String())
		b.WriteString(`"/>`)
	}
	b.WriteString(svgFooter)
	return b.String()
}

type svgDoc struct {
	XMLName xml.Name  `xml:"svg"`
	ViewBox string    `xml:"viewBox,attr"`
	Rects   []svgRect `xml:"rect"`
}

type svgRect struct {
	X      int    `xml:"x,attr"`
	Y      int    `xml:"y,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
	Fill   string `xml:"fill,attr"`
}

// ColorGrid is the decoded color of every cell, row-major.
type ColorGrid [pixel.CanvasCells]pixel.Color

// DecodeSVG parses an image produced by SVG back into per-cell colors.
func DecodeSVG(svg string) (ColorGrid, error) {
	var grid ColorGrid
	var doc svgDoc
	if err := xml.Unmarshal([]byte(svg), &doc); err != nil {
		return grid, fmt.Errorf("parsing svg: %w", err)
	}
	want := fmt.Sprintf("0 0 %d %d", pixel.CanvasSize, pixel.CanvasSize)
	if doc.ViewBox != want {
		return grid, fmt.Errorf("unexpected viewBox %q", doc.ViewBox)
	}
	for _, r := range doc.Rects {
		if r.Height != 1 || r.Y < 0 || r.Y >= pixel.CanvasSize || r.X < 0 || r.Width < 1 || r.X+r.Width > pixel.CanvasSize {
			return grid, fmt.Errorf("%w: x=%d y=%d width=%d height=%d", ErrRectOutOfBounds, r.X, r.Y, r.Width, r.Height)
		}
		c, err := pixel.ParseColor(r.Fill)
		if err != nil {
			return grid, err
		}
		for x := r.X; x < r.X+r.Width; x++ {
			grid[r.Y*pixel.CanvasSize+x] = c
		}
	}
	return grid, nil
}
