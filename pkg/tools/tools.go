// Package tools defines the raster and video services used by the pipeline.
//
// Every external collaborator is a small interface: [Resizer], [Quantizer],
// [ColorLister], [Masker] and [Encoder]. Two raster backends implement them:
//
//   - [Native] runs in-process on top of disintegration/imaging and the
//     palette package.
//   - [Magick] shells out to ImageMagick's convert, matching the original
//     command-line tooling.
//
// Video encoding is always delegated to ffmpeg through [FFmpeg].
//
// Backends write their outputs into a work directory and return the path of
// the written file.
package tools

import (
	"context"
	"strings"

	"github.com/matzehuels/drawreel/pkg/errors"
)

// Resizer fits an image to exact dimensions.
type Resizer interface {
	// Resize scales src preserving aspect ratio until it covers
	// width×height, then crops the centered width×height window.
	Resize(ctx context.Context, src string, width, height int) (string, error)
}

// Quantizer reduces an image to at most k colors.
type Quantizer interface {
	Quantize(ctx context.Context, src string, k int) (string, error)
}

// ColorLister enumerates the colors of an image.
type ColorLister interface {
	// UniqueColors returns the distinct "#rrggbb" colors of src in
	// ascending order.
	UniqueColors(ctx context.Context, src string) ([]string, error)
}

// Masker cuts one color out of an image.
type Masker interface {
	// Mask writes a copy of src in which pixels of color are transparent.
	Mask(ctx context.Context, src, color string) (string, error)
}

// Raster bundles the raster services of one backend.
type Raster interface {
	Resizer
	Quantizer
	ColorLister
	Masker
}

// Backend names a raster implementation.
type Backend string

// Supported backends.
const (
	BackendNative Backend = "native"
	BackendMagick Backend = "magick"
)

// Config is shared by the raster backends.
type Config struct {
	WorkDir   string
	Method    string // palette method, native backend only
	Paint     int    // smoothing radius, 0 disables it
	Tolerance int    // color match tolerance for Mask
}

// NewRaster returns the raster backend with the given name.
func NewRaster(name string, cfg Config) (Raster, error) {
	switch Backend(strings.ToLower(name)) {
	case BackendNative, "":
		return NewNative(cfg), nil
	case BackendMagick:
		return NewMagick(cfg), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid backend: %q (must be native or magick)", name)
	}
}
