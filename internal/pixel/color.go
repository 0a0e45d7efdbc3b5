// Package pixel defines the value types shared by every edition of a collection:
// the 24-bit Color, the fixed-capacity Palette and the immutable Canvas of palette
// indices, together with their text and packed encodings.
package pixel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrColorOutOfRange = errors.New("color exceeds 24 bits")
	ErrInvalidHex      = errors.New("invalid hex color")
)

// MaxColor is the largest representable RGB value.
const MaxColor Color = 0xFFFFFF

// Color is an RGB triplet packed as 0xRRGGBB.
type Color uint32

// RGB builds a Color from its components.
func RGB(r, g, b uint8) Color {
	return Color(r)<<16 | Color(g)<<8 | Color(b)
}

// ParseColor accepts "#rrggbb", "rrggbb", "#rgb" and "0xrrggbb".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(hex, "#"):
		hex = hex[1:]
	case strings.HasPrefix(hex, "0x"), strings.HasPrefix(hex, "0X"):
		hex = hex[2:]
	}

	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return Color(v), nil
}

// Components returns the red, green and blue channels.
func (c Color) Components() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Valid reports whether the color fits in 24 bits.
func (c Color) Valid() bool {
	return c <= MaxColor
}

// String returns the lowercase "#rrggbb" form used in rendered documents.
func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c&MaxColor))
}
