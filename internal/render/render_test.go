package render

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/dixel/internal/cachemanager"
	"github.com/zjrosen/dixel/internal/pixel"
)

func canvasGen() *rapid.Generator[pixel.Canvas] {
	return rapid.Custom(func(t *rapid.T) pixel.Canvas {
		var c pixel.Canvas
		// A small index range produces long runs as well as short ones.
		maxIdx := rapid.IntRange(0, pixel.PaletteSize-1).Draw(t, "maxIdx")
		cells := rapid.SliceOfN(rapid.IntRange(0, maxIdx), pixel.CanvasCells, pixel.CanvasCells).Draw(t, "cells")
		for i, idx := range cells {
			c[i] = uint8(idx)
		}
		return c
	})
}

func paletteGen() *rapid.Generator[pixel.Palette] {
	return rapid.Custom(func(t *rapid.T) pixel.Palette {
		var p pixel.Palette
		for i := range p {
			p[i] = pixel.Color(rapid.Uint32Range(0, uint32(pixel.MaxColor)).Draw(t, "color"))
		}
		return p
	})
}

func TestRects_SolidCanvas(t *testing.T) {
	var c pixel.Canvas
	p, err := pixel.NewPalette(0xffffff)
	require.NoError(t, err)

	rects := Rects(&c, p)
	require.Len(t, rects, pixel.CanvasSize)
	for y, r := range rects {
		require.Equal(t, Rect{X: 0, Y: y, Width: pixel.CanvasSize, Index: 0, Color: 0xffffff}, r)
	}
}

func TestRects_Runs(t *testing.T) {
	var c pixel.Canvas
	c.Set(0, 0, 1)
	c.Set(1, 0, 1)
	c.Set(2, 0, 2)
	c.Set(23, 0, 3)
	p, err := pixel.NewPalette(0x000000, 0x111111, 0x222222, 0x333333)
	require.NoError(t, err)

	rects := Rects(&c, p)
	row0 := []Rect{}
	for _, r := range rects {
		if r.Y == 0 {
			row0 = append(row0, r)
		}
	}
	require.Equal(t, []Rect{
		{X: 0, Y: 0, Width: 2, Index: 1, Color: 0x111111},
		{X: 2, Y: 0, Width: 1, Index: 2, Color: 0x222222},
		{X: 3, Y: 0, Width: 20, Index: 0, Color: 0x000000},
		{X: 23, Y: 0, Width: 1, Index: 3, Color: 0x333333},
	}, row0)
	require.Len(t, rects, 4+pixel.CanvasSize-1)
}

func TestRects_RasterizeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := canvasGen().Draw(t, "canvas")
		p := paletteGen().Draw(t, "palette")

		got, err := Rasterize(Rects(&c, p))
		if err != nil {
			t.Fatalf("rasterize: %v", err)
		}
		if got != c {
			t.Fatalf("rasterized canvas differs from original")
		}
	})
}

func TestRasterize_OutOfBounds(t *testing.T) {
	_, err := Rasterize([]Rect{{X: 20, Y: 0, Width: 5}})
	require.ErrorIs(t, err, ErrRectOutOfBounds)
}

func TestSVG_Solid(t *testing.T) {
	var c pixel.Canvas
	p, err := pixel.NewPalette(0xff00aa)
	require.NoError(t, err)

	var want strings.Builder
	want.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" version="1.1" viewBox="0 0 24 24" shape-rendering="crispEdges">`)
	for y := 0; y < pixel.CanvasSize; y++ {
		want.WriteString(`<rect x="0" y="`)
		want.WriteString(strconv.Itoa(y))
		want.WriteString(`" width="24" height="1" fill="#ff00aa"/>`)
	}
	want.WriteString(`</svg>`)

	require.Equal(t, want.String(), SVG(&c, p))
}

func TestSVG_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := canvasGen().Draw(t, "canvas")
		p := paletteGen().Draw(t, "palette")

		if SVG(&c, p) != SVG(&c, p) {
			t.Fatalf("svg output is not deterministic")
		}
	})
}

func TestSVG_DecodeMatchesPalette(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := canvasGen().Draw(t, "canvas")
		p := paletteGen().Draw(t, "palette")

		grid, err := DecodeSVG(SVG(&c, p))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		for i, idx := range c {
			if grid[i] != p[idx] {
				t.Fatalf("cell %d: got %s want %s", i, grid[i], p[idx])
			}
		}
	})
}

func TestSVG_SizeBoundedByRuns(t *testing.T) {
	var solid pixel.Canvas
	var striped pixel.Canvas
	for i := range striped {
		striped[i] = uint8(i % 2)
	}
	p, err := pixel.NewPalette(0x000000, 0xffffff)
	require.NoError(t, err)

	require.Less(t, len(SVG(&solid, p)), len(SVG(&striped, p)))
	require.Equal(t, pixel.CanvasSize, strings.Count(SVG(&solid, p), "<rect"))
	require.Equal(t, pixel.CanvasCells, strings.Count(SVG(&striped, p), "<rect"))
}

func TestDataURI_RoundTrip(t *testing.T) {
	uri := DataURI(MimeSVG, "<svg/>")
	require.Equal(t, "data:image/svg+xml;base64,"+base64.StdEncoding.EncodeToString([]byte("<svg/>")), uri)

	mime, body, err := DecodeDataURI(uri)
	require.NoError(t, err)
	require.Equal(t, MimeSVG, mime)
	require.Equal(t, "<svg/>", body)

	_, _, err = DecodeDataURI("https://example.com")
	require.Error(t, err)
	_, _, err = DecodeDataURI("data:text/plain,hello")
	require.Error(t, err)
}

func TestTokenDocument_Encode(t *testing.T) {
	svg := "<svg/>"
	doc := NewTokenDocument("DIX", "pixels <b>&", "https://dixel.club/collection/0xabc/1", svg, 1)

	got, err := Encode(doc)
	require.NoError(t, err)
	require.Equal(t,
		`{"name":"DIX #1","description":"pixels <b>&","external_url":"https://dixel.club/collection/0xabc/1","image":"data:image/svg+xml;base64,`+
			base64.StdEncoding.EncodeToString([]byte(svg))+`"}`,
		got)

	uri, err := TokenURI(doc)
	require.NoError(t, err)
	mime, body, err := DecodeDataURI(uri)
	require.NoError(t, err)
	require.Equal(t, MimeJSON, mime)
	require.Equal(t, got, body)
}

func TestContractDocument_Encode(t *testing.T) {
	doc := NewContractDocument("Dixel", "desc", "https://dixel.club/collection/0xabc", "<svg/>", 500, "0x00000000000000000000000000000000000000aa")

	got, err := Encode(doc)
	require.NoError(t, err)
	require.Equal(t,
		`{"name":"Dixel","description":"desc","image":"data:image/svg+xml;base64,PHN2Zy8+","external_link":"https://dixel.club/collection/0xabc","seller_fee_basis_points":"500","fee_recipient":"0x00000000000000000000000000000000000000aa"}`,
		got)

	uri, err := ContractURI(doc)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:application/json;base64,"))
}

func TestCachedRenderer_MatchesDirect(t *testing.T) {
	cache := cachemanager.NewInMemoryCacheManager[string, string]("svg", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	r := NewCachedRenderer(cache, 0)

	var c pixel.Canvas
	c.Set(3, 4, 2)
	p, err := pixel.NewPalette(0x010203, 0x040506, 0x070809)
	require.NoError(t, err)

	require.Equal(t, Direct{}.Image(&c, p), r.Image(&c, p))
	require.Equal(t, Direct{}.Image(&c, p), r.Image(&c, p))

	stats := cache.Stats()
	require.Equal(t, uint64(1), stats.Hits)
	require.Equal(t, uint64(1), stats.Misses)

	p[2] = 0xffffff
	require.NotEqual(t, ImageKey(&c, p), ImageKey(&c, pixel.Palette{}))
	require.Contains(t, r.Image(&c, p), `fill="#ffffff"`)
}

func TestCachedRenderer_FallsBackOnCacheError(t *testing.T) {
	cache := cachemanager.NewInMemoryCacheManager[string, string]("svg", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	r := NewCachedRenderer(cache, 0)

	var c pixel.Canvas
	c.Set(0, 0, 1)
	p, err := pixel.NewPalette(0x000000, 0xff0000)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Equal(t, SVG(&c, p), r.image(ctx, &c, p))
	require.Zero(t, cache.Stats().Items)
}

func TestRects_InvalidIndexPanics(t *testing.T) {
	var c pixel.Canvas
	c.Set(5, 5, pixel.PaletteSize)
	require.Panics(t, func() { Rects(&c, pixel.Palette{}) })
}
