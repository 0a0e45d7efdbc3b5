package render

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/zjrosen/dixel/internal/cachemanager"
	"github.com/zjrosen/dixel/internal/log"
	"github.com/zjrosen/dixel/internal/pixel"
)

// Renderer produces the SVG image for a canvas and palette.
type Renderer interface {
	Image(canvas *pixel.Canvas, palette pixel.Palette) string
}

// Direct renders on every call.
type Direct struct{}

func (Direct) Image(canvas *pixel.Canvas, palette pixel.Palette) string {
	return SVG(canvas, palette)
}

type imageInput struct {
	canvas  *pixel.Canvas
	palette pixel.Palette
}

// CachedRenderer memoizes SVG output keyed by a digest of the canvas and palette.
type CachedRenderer struct {
	rt  *cachemanager.ReadThroughCache[string, string, imageInput]
	ttl time.Duration
}

// NewCachedRenderer wraps cache. A zero ttl uses the cache default expiration.
func NewCachedRenderer(cache cachemanager.CacheManager[string, string], ttl time.Duration) *CachedRenderer {
	if ttl == 0 {
		ttl = cachemanager.DefaultExpiration
	}
	return &CachedRenderer{
		rt: cachemanager.NewReadThroughCache[string, string, imageInput](
			cache,
			imageKey,
			func(ctx context.Context, in imageInput) (string, error) {
				if err := ctx.Err(); err != nil {
					return "", err
				}
				return SVG(in.canvas, in.palette), nil
			},
			false,
		),
		ttl: ttl,
	}
}

func (r *CachedRenderer) Image(canvas *pixel.Canvas, palette pixel.Palette) string {
	return r.image(context.Background(), canvas, palette)
}

// image falls back to rendering directly when the cache path fails.
func (r *CachedRenderer) image(ctx context.Context, canvas *pixel.Canvas, palette pixel.Palette) string {
	svg, err := r.rt.Get(ctx, imageInput{canvas: canvas, palette: palette}, r.ttl)
	if err != nil {
		log.ErrorErr(log.CatRender, "Cached render failed", err, "key", ImageKey(canvas, palette))
		return SVG(canvas, palette)
	}
	return svg
}

// ImageKey is the cache key for a canvas and palette.
func ImageKey(canvas *pixel.Canvas, palette pixel.Palette) string {
	return imageKey(imageInput{canvas: canvas, palette: palette})
}

func imageKey(in imageInput) string {
	h := sha256.New()
	h.Write(in.canvas.Pack())
	var buf [4]byte
	for _, c := range in.palette {
		binary.BigEndian.PutUint32(buf[:], uint32(c))
		h.Write(buf[:])
	}
	return "svg:" + hex.EncodeToString(h.Sum(nil))
}
