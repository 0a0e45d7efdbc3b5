package pixel

import (
	"errors"
	"fmt"
)

// CanvasSize is the side length of the square canvas.
const CanvasSize = 24

// CanvasCells is the number of cells in a canvas.
const CanvasCells = CanvasSize * CanvasSize

// PackedSize is the byte length of a packed canvas.
const PackedSize = CanvasCells * PaletteBits / 8

var (
	ErrIndexOutOfRange = errors.New("palette index out of range")
	ErrCanvasShape     = errors.New("canvas must be square")
	ErrPackedLength    = errors.New("invalid packed canvas length")
)

// Canvas is a row-major grid of palette indices.
type Canvas [CanvasCells]uint8

// CanvasFromRows builds a canvas from CanvasSize rows of CanvasSize indices.
func CanvasFromRows(rows [][]int) (Canvas, error) {
	var c Canvas
	if len(rows) != CanvasSize {
		return c, fmt.Errorf("%w: got %d rows, want %d", ErrCanvasShape, len(rows), CanvasSize)
	}
	for y, row := range rows {
		if len(row) != CanvasSize {
			return c, fmt.Errorf("%w: row %d has %d cells, want %d", ErrCanvasShape, y, len(row), CanvasSize)
		}
		for x, idx := range row {
			if idx < 0 || idx >= PaletteSize {
				return c, fmt.Errorf("%w: cell (%d,%d) = %d", ErrIndexOutOfRange, x, y, idx)
			}
			c[y*CanvasSize+x] = uint8(idx)
		}
	}
	return c, nil
}

// At returns the palette index at column x, row y.
func (c *Canvas) At(x, y int) uint8 {
	return c[y*CanvasSize+x]
}

// Set writes a palette index at column x, row y.
func (c *Canvas) Set(x, y int, idx uint8) {
	c[y*CanvasSize+x] = idx
}

// Validate checks every cell addresses a palette slot.
func (c *Canvas) Validate() error {
	for i, idx := range c {
		if idx >= PaletteSize {
			return fmt.Errorf("%w: cell (%d,%d) = %d", ErrIndexOutOfRange, i%CanvasSize, i/CanvasSize, idx)
		}
	}
	return nil
}

// Rows returns the canvas as nested slices, the inverse of CanvasFromRows.
func (c *Canvas) Rows() [][]int {
	rows := make([][]int, CanvasSize)
	for y := range rows {
		row := make([]int, CanvasSize)
		for x := range row {
			row[x] = int(c.At(x, y))
		}
		rows[y] = row
	}
	return rows
}

// Pack encodes the canvas at PaletteBits per cell, most significant bit first.
func (c *Canvas) Pack() []byte {
	out := make([]byte, PackedSize)
	bit := 0
	for _, idx := range c {
		for b := PaletteBits - 1; b >= 0; b-- {
			if idx>>uint(b)&1 == 1 {
				out[bit/8] |= 0x80 >> uint(bit%8)
			}
			bit++
		}
	}
	return out
}

// Unpack decodes a canvas produced by Pack.
func Unpack(packed []byte) (Canvas, error) {
	var c Canvas
	if len(packed) != PackedSize {
		return c, fmt.Errorf("%w: got %d, want %d", ErrPackedLength, len(packed), PackedSize)
	}
	bit := 0
	for i := range c {
		var idx uint8
		for b := 0; b < PaletteBits; b++ {
			idx <<= 1
			if packed[bit/8]&(0x80>>uint(bit%8)) != 0 {
				idx |= 1
			}
			bit++
		}
		c[i] = idx
	}
	return c, nil
}
