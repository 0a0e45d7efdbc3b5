// Package artwork loads collection artwork files: a YAML document holding a
// canvas drawn as rows of palette glyphs, the palette, and optionally the
// collection's name and sale settings.
//
//	name: Heart
//	symbol: HRT
//	palette: ["#ffffff", "#e63946"]
//	canvas: |
//	  000000000000000000000000
//	  ...
//
// Glyphs 0-9 and a-v address palette slots 0 through 31. "." is slot 0.
package artwork

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/pixel"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// BuiltinPrefix selects an embedded artwork instead of a file path.
const BuiltinPrefix = "builtin:"

const glyphs = "0123456789abcdefghijklmnopqrstuv"

var ErrNotFound = errors.New("artwork not found")

// Artwork is a parsed artwork file.
type Artwork struct {
	Name        string
	Symbol      string
	Description string
	Palette     pixel.Palette
	Canvas      pixel.Canvas
	Meta        collection.MetaParams
}

type artworkFile struct {
	Name        string   `yaml:"name"`
	Symbol      string   `yaml:"symbol"`
	Description string   `yaml:"description"`
	Palette     []string `yaml:"palette"`
	Canvas      string   `yaml:"canvas"`
	Sale        saleFile `yaml:"sale"`
}

type saleFile struct {
	MaxSupply         uint64 `yaml:"max_supply"`
	RoyaltyFraction   uint64 `yaml:"royalty_fraction"`
	MintingBeginsFrom string `yaml:"minting_begins_from"` // RFC 3339 or unix seconds
	MintingCost       string `yaml:"minting_cost"`        // wei or "0.01ether"
	WhitelistOnly     bool   `yaml:"whitelist_only"`
	Hidden            bool   `yaml:"hidden"`
}

// Load reads an artwork from a file path, or from the embedded set when ref
// starts with BuiltinPrefix.
func Load(ref string) (*Artwork, error) {
	if name, ok := strings.CutPrefix(ref, BuiltinPrefix); ok {
		data, err := fs.ReadFile(builtinFS, path.Join("builtin", name+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return Parse(data)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("reading artwork: %w", err)
	}
	return Parse(data)
}

// Builtins lists the names of the embedded artworks.
func Builtins() []string {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Parse decodes an artwork document. Unknown fields are rejected.
func Parse(data []byte) (*Artwork, error) {
	var f artworkFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing artwork: %w", err)
	}

	palette, err := pixel.ParsePalette(f.Palette)
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	canvas, err := ParseCanvas(f.Canvas)
	if err != nil {
		return nil, err
	}
	meta, err := f.Sale.meta()
	if err != nil {
		return nil, err
	}

	return &Artwork{
		Name:        f.Name,
		Symbol:      f.Symbol,
		Description: strings.TrimSpace(f.Description),
		Palette:     palette,
		Canvas:      canvas,
		Meta:        meta,
	}, nil
}

func (s saleFile) meta() (collection.MetaParams, error) {
	m := collection.MetaParams{
		MaxSupply:       s.MaxSupply,
		RoyaltyFraction: s.RoyaltyFraction,
		WhitelistOnly:   s.WhitelistOnly,
		Hidden:          s.Hidden,
	}
	if s.MintingCost != "" {
		cost, err := chain.ParseAmount(s.MintingCost)
		if err != nil {
			return m, fmt.Errorf("sale.minting_cost: %w", err)
		}
		m.MintingCost = cost
	}
	if s.MintingBeginsFrom != "" {
		begins, err := ParseTime(s.MintingBeginsFrom)
		if err != nil {
			return m, fmt.Errorf("sale.minting_begins_from: %w", err)
		}
		m.MintingBeginsFrom = begins
	}
	return m, nil
}

// ParseTime accepts unix seconds or an RFC 3339 timestamp.
func ParseTime(s string) (int64, error) {
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return unix, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("%q is neither unix seconds nor RFC 3339", s)
	}
	return t.Unix(), nil
}

// ParseCanvas reads CanvasSize rows of CanvasSize glyphs. Blank lines and
// spaces inside rows are ignored.
func ParseCanvas(text string) (pixel.Canvas, error) {
	var c pixel.Canvas
	y := 0
	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.ReplaceAll(strings.TrimSpace(line), " ", "")
		if line == "" {
			continue
		}
		if y == pixel.CanvasSize {
			return c, fmt.Errorf("canvas line %d: %w: more than %d rows", lineNo+1, pixel.ErrCanvasShape, pixel.CanvasSize)
		}
		if len(line) != pixel.CanvasSize {
			return c, fmt.Errorf("canvas line %d: %w: %d cells, want %d", lineNo+1, pixel.ErrCanvasShape, len(line), pixel.CanvasSize)
		}
		for x := 0; x < pixel.CanvasSize; x++ {
			idx, ok := glyphIndex(line[x])
			if !ok {
				return c, fmt.Errorf("canvas line %d: invalid glyph %q", lineNo+1, line[x])
			}
			c.Set(x, y, idx)
		}
		y++
	}
	if y != pixel.CanvasSize {
		return c, fmt.Errorf("%w: got %d rows, want %d", pixel.ErrCanvasShape, y, pixel.CanvasSize)
	}
	return c, nil
}

// FormatCanvas writes the canvas in the glyph form ParseCanvas reads.
func FormatCanvas(c *pixel.Canvas) string {
	var b strings.Builder
	for y := 0; y < pixel.CanvasSize; y++ {
		for x := 0; x < pixel.CanvasSize; x++ {
			b.WriteByte(glyphs[c.At(x, y)])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func glyphIndex(g byte) (uint8, bool) {
	if g == '.' {
		return 0, true
	}
	if g >= 'A' && g <= 'V' {
		g += 'a' - 'A'
	}
	i := strings.IndexByte(glyphs, g)
	if i < 0 {
		return 0, false
	}
	return uint8(i), true
}

// ParsePaletteList reads a comma separated list of hex colors.
func ParsePaletteList(s string) (pixel.Palette, error) {
	var hexes []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hexes = append(hexes, h)
		}
	}
	return pixel.ParsePalette(hexes)
}
