package artwork

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/pixel"
)

func blankRows(glyph string) string {
	return strings.Repeat(strings.Repeat(glyph, pixel.CanvasSize)+"\n", pixel.CanvasSize)
}

func TestBuiltins(t *testing.T) {
	names := Builtins()
	require.Equal(t, []string{"heart", "smiley"}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			art, err := Load(BuiltinPrefix + name)
			require.NoError(t, err)
			require.NoError(t, collection.ValidateCreation(art.Name, art.Symbol, art.Description, art.Meta))
			require.NoError(t, collection.ValidateArtwork(&art.Canvas, art.Palette))
		})
	}
}

func TestLoad_HeartSale(t *testing.T) {
	art, err := Load("builtin:heart")
	require.NoError(t, err)
	require.Equal(t, "HEART", art.Symbol)
	require.Equal(t, uint64(100), art.Meta.MaxSupply)
	require.Equal(t, uint64(250), art.Meta.RoyaltyFraction)
	require.Equal(t, uint64(10_000_000_000_000_000), art.Meta.MintingCost)
	require.Equal(t, pixel.RGB(0xe6, 0x39, 0x46), art.Palette[1])
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load("builtin:nope")
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "art.yaml")
	doc := "name: Plain\nsymbol: PLN\npalette: [\"#000\", \"#fff\"]\nsale:\n  max_supply: 5\n  minting_begins_from: 2024-01-01T00:00:00Z\ncanvas: |\n" +
		indent(blankRows("1"))
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	art, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Plain", art.Name)
	require.Equal(t, int64(1704067200), art.Meta.MintingBeginsFrom)
	require.Equal(t, uint8(1), art.Canvas.At(5, 5))
	require.Equal(t, pixel.RGB(255, 255, 255), art.Palette[1])
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "colour: red\n", "field colour not found"},
		{"bad palette", "palette: [\"#zzzzzz\"]\ncanvas: |\n" + indent(blankRows("0")), "palette"},
		{"short canvas", "canvas: |\n  000\n", "canvas"},
		{"bad cost", "sale:\n  minting_cost: lots\ncanvas: |\n" + indent(blankRows("0")), "sale.minting_cost"},
		{"bad time", "sale:\n  minting_begins_from: soon\ncanvas: |\n" + indent(blankRows("0")), "sale.minting_begins_from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseCanvas(t *testing.T) {
	rows := blankRows(".")
	rows = strings.Replace(rows, ".", "V", 1)
	c, err := ParseCanvas("\n" + rows + "\n\n")
	require.NoError(t, err)
	require.Equal(t, uint8(31), c.At(0, 0))
	require.Equal(t, uint8(0), c.At(1, 0))

	_, err = ParseCanvas(rows + strings.Repeat("0", pixel.CanvasSize))
	require.ErrorIs(t, err, pixel.ErrCanvasShape)

	_, err = ParseCanvas(strings.Replace(rows, ".", "w", 1))
	require.ErrorContains(t, err, "invalid glyph")

	_, err = ParseCanvas(strings.Replace(rows, ".", "\x10", 1))
	require.ErrorContains(t, err, "invalid glyph")
}

func TestParseCanvas_SpacesIgnored(t *testing.T) {
	row := strings.Repeat("01 ", pixel.CanvasSize/2) + "\n"
	c, err := ParseCanvas(strings.Repeat(row, pixel.CanvasSize))
	require.NoError(t, err)
	require.Equal(t, uint8(1), c.At(1, 7))
}

func TestFormatCanvas_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var c pixel.Canvas
		for i := range c {
			c[i] = rapid.Uint8Range(0, pixel.PaletteSize-1).Draw(t, "cell")
		}
		got, err := ParseCanvas(FormatCanvas(&c))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if got != c {
			t.Fatalf("round trip changed the canvas")
		}
	})
}

func TestParseTime(t *testing.T) {
	v, err := ParseTime("1700000000")
	require.NoError(t, err)
	require.Equal(t, int64(1_700_000_000), v)

	v, err = ParseTime("2023-11-14T22:13:20Z")
	require.NoError(t, err)
	require.Equal(t, int64(1_700_000_000), v)

	_, err = ParseTime("tomorrow")
	require.Error(t, err)
}

func TestParsePaletteList(t *testing.T) {
	p, err := ParsePaletteList("#fff, 000000,,#f00")
	require.NoError(t, err)
	require.Equal(t, pixel.RGB(255, 255, 255), p[0])
	require.Equal(t, pixel.RGB(0, 0, 0), p[1])
	require.Equal(t, pixel.RGB(255, 0, 0), p[2])

	_, err = ParsePaletteList("nope")
	require.Error(t, err)
}
