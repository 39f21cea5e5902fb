package tools

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/drawreel/pkg/errors"
	"github.com/matzehuels/drawreel/pkg/palette"
	"github.com/matzehuels/drawreel/pkg/raster"
)

// Native implements [Raster] in-process.
type Native struct {
	cfg Config
}

// NewNative returns the in-process backend.
func NewNative(cfg Config) *Native {
	return &Native{cfg: cfg}
}

// Resize implements [Resizer].
func (n *Native) Resize(ctx context.Context, src string, width, height int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(errors.ErrCodeCancelled, err, "resize interrupted")
	}
	if width < 1 || height < 1 {
		return "", errors.New(errors.ErrCodeInvalidInput, "canvas must be at least 1x1, got %dx%d", width, height)
	}
	img, err := raster.Load(src)
	if err != nil {
		return "", err
	}
	out := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	dst := filepath.Join(n.cfg.WorkDir, "resized.png")
	return dst, raster.Save(dst, out)
}

// Quantize implements [Quantizer]. The palette method and paint radius come
// from the backend configuration.
func (n *Native) Quantize(ctx context.Context, src string, k int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(errors.ErrCodeCancelled, err, "quantize interrupted")
	}
	img, err := raster.Load(src)
	if err != nil {
		return "", err
	}
	method, err := palette.ParseMethod(n.cfg.Method)
	if err != nil {
		return "", err
	}
	p, err := palette.Extract(img, k, method)
	if err != nil {
		return "", err
	}
	q := palette.Paint(palette.Apply(img, p), n.cfg.Paint)

	dst := filepath.Join(n.cfg.WorkDir, "quantized.png")
	return dst, raster.Save(dst, q)
}

// UniqueColors implements [ColorLister].
func (n *Native) UniqueColors(ctx context.Context, src string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCancelled, err, "color listing interrupted")
	}
	img, err := raster.Load(src)
	if err != nil {
		return nil, err
	}
	return palette.UniqueOf(img).Hex(), nil
}

// Mask implements [Masker].
func (n *Native) Mask(ctx context.Context, src, color string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(errors.ErrCodeCancelled, err, "mask interrupted")
	}
	c, err := raster.ParseColor(color)
	if err != nil {
		return "", err
	}
	img, err := raster.Load(src)
	if err != nil {
		return "", err
	}
	out := raster.CutColor(img, c, n.cfg.Tolerance)

	dst := filepath.Join(n.cfg.WorkDir, maskName(color))
	return dst, raster.Save(dst, out)
}

func maskName(color string) string {
	return "mask-" + strings.TrimPrefix(strings.ToLower(color), "#") + ".png"
}
