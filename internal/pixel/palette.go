package pixel

import (
	"errors"
	"fmt"
)

// PaletteBits is the width of one canvas cell.
const PaletteBits = 5

// PaletteSize is the number of colors addressable by a canvas cell.
const PaletteSize = 1 << PaletteBits

var ErrPaletteTooLong = errors.New("too many palette colors")

// Palette is the per-edition color table. Unused slots are black.
type Palette [PaletteSize]Color

// NewPalette builds a palette from up to PaletteSize colors.
func NewPalette(colors ...Color) (Palette, error) {
	var p Palette
	if len(colors) > PaletteSize {
		return p, fmt.Errorf("%w: got %d, max %d", ErrPaletteTooLong, len(colors), PaletteSize)
	}
	copy(p[:], colors)
	return p, p.Validate()
}

// ParsePalette parses hex strings into a palette.
func ParsePalette(hexes []string) (Palette, error) {
	if len(hexes) > PaletteSize {
		return Palette{}, fmt.Errorf("%w: got %d, max %d", ErrPaletteTooLong, len(hexes), PaletteSize)
	}
	colors := make([]Color, len(hexes))
	for i, h := range hexes {
		c, err := ParseColor(h)
		if err != nil {
			return Palette{}, fmt.Errorf("palette[%d]: %w", i, err)
		}
		colors[i] = c
	}
	return NewPalette(colors...)
}

// Validate checks every slot holds a 24-bit color.
func (p Palette) Validate() error {
	for i, c := range p {
		if !c.Valid() {
			return fmt.Errorf("palette[%d]: %w: %#x", i, ErrColorOutOfRange, uint32(c))
		}
	}
	return nil
}

// Strings returns the hex form of every slot.
func (p Palette) Strings() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = c.String()
	}
	return out
}

// IsZero reports whether every slot is black. Burned editions have a zero palette.
func (p Palette) IsZero() bool {
	return p == Palette{}
}
