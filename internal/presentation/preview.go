package presentation

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/zjrosen/dixel/internal/pixel"
)

// indexGlyphs labels palette slots in the monochrome preview.
const indexGlyphs = "0123456789abcdefghijklmnopqrstuv"

// Preview draws a canvas in the terminal. Two canvas rows share one text
// row: the upper cell is the foreground of "▀" and the lower its background.
// Profiles without color fall back to one glyph per cell naming the palette slot.
type Preview struct {
	renderer *lipgloss.Renderer
}

// NewPreview renders for w, detecting its color profile.
func NewPreview(w io.Writer) *Preview {
	return &Preview{renderer: lipgloss.NewRenderer(w)}
}

// NewPreviewWithProfile renders with a fixed color profile.
func NewPreviewWithProfile(w io.Writer, profile termenv.Profile) *Preview {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	return &Preview{renderer: r}
}

// Render returns the preview of canvas colored with palette.
func (p *Preview) Render(canvas *pixel.Canvas, palette pixel.Palette) string {
	if p.renderer.ColorProfile() == termenv.Ascii {
		return glyphs(canvas)
	}

	var b strings.Builder
	for y := 0; y < pixel.CanvasSize; y += 2 {
		for x := 0; x < pixel.CanvasSize; x++ {
			top := palette[canvas.At(x, y)]
			cell := p.renderer.NewStyle().Foreground(lipgloss.Color(top.String()))
			if y+1 < pixel.CanvasSize {
				bottom := palette[canvas.At(x, y+1)]
				cell = cell.Background(lipgloss.Color(bottom.String()))
			}
			b.WriteString(cell.Render("▀"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Swatches renders the palette slots the canvas uses, one per line.
func (p *Preview) Swatches(canvas *pixel.Canvas, palette pixel.Palette) string {
	var used [pixel.PaletteSize]bool
	for _, idx := range canvas {
		used[idx] = true
	}
	color := p.renderer.ColorProfile() != termenv.Ascii

	var b strings.Builder
	for i, ok := range used {
		if !ok {
			continue
		}
		b.WriteByte(indexGlyphs[i])
		b.WriteByte(' ')
		if color {
			b.WriteString(p.renderer.NewStyle().Background(lipgloss.Color(palette[i].String())).Render("  "))
			b.WriteByte(' ')
		}
		b.WriteString(palette[i].String())
		b.WriteByte('\n')
	}
	return b.String()
}

func glyphs(canvas *pixel.Canvas) string {
	var b strings.Builder
	for y := 0; y < pixel.CanvasSize; y++ {
		for x := 0; x < pixel.CanvasSize; x++ {
			b.WriteByte(indexGlyphs[canvas.At(x, y)])
		}
		b.WriteByte('\n')
	}
	return b.String()
}
