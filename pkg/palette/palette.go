// Package palette reduces an image to a small set of flat colors.
//
// Quantization runs in two steps: a palette of at most K representative
// colors is selected ([Extract]), then every pixel is mapped to its nearest
// palette entry in CIE Lab space ([Apply]). The result is an
// *image.Paletted whose distinct colors ([Unique]) drive region extraction.
//
// # Methods
//
//   - [MethodHistogram]: deterministic. Pixels are bucketed on a 5-bit-per-
//     channel grid, a diverse weighted subset of buckets seeds the palette
//     and a fixed number of Lloyd passes refine it. Identical input and K
//     always yield the identical palette.
//   - [MethodDominant]: candidates from github.com/cenkalti/dominantcolor.
//   - [MethodKMeans]: candidates from github.com/muesli/kmeans. The library
//     seeds its own generator, so results can differ between runs.
package palette

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/drawreel/pkg/errors"
)

// MaxColors is the largest supported palette (palette indices are bytes).
const MaxColors = 256

// Color is an opaque RGB palette entry.
type Color struct {
	R, G, B uint8
}

// Hex returns the stable "#rrggbb" identity of c.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}.RGBA()
}

// NRGBA returns c as an opaque color.NRGBA.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// ParseHex parses "#rrggbb" (the leading '#' is optional).
func ParseHex(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 7 {
		return Color{}, errors.New(errors.ErrCodeInvalidColor, "invalid palette color %q", s)
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return Color{}, errors.Wrap(errors.ErrCodeInvalidColor, err, "invalid palette color %q", s)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Palette is an ordered set of colors without duplicates.
type Palette []Color

// New builds a palette from colors, dropping duplicates while keeping the
// order of first occurrence.
func New(colors ...Color) Palette {
	seen := make(map[Color]bool, len(colors))
	p := make(Palette, 0, len(colors))
	for _, c := range colors {
		if seen[c] {
			continue
		}
		seen[c] = true
		p = append(p, c)
	}
	return p
}

// FromHex parses a list of "#rrggbb" strings into a palette.
func FromHex(hexes []string) (Palette, error) {
	colors := make([]Color, 0, len(hexes))
	for _, h := range hexes {
		c, err := ParseHex(h)
		if err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}
	return New(colors...), nil
}

// Hex returns the identities of all colors in order.
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = c.Hex()
	}
	return out
}

// Index returns the position of c in p, or -1.
func (p Palette) Index(c Color) int {
	for i, pc := range p {
		if pc == c {
			return i
		}
	}
	return -1
}

// ColorPalette converts p into a color.Palette for image.Paletted.
func (p Palette) ColorPalette() color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		out[i] = c.NRGBA()
	}
	return out
}

// Method selects the palette extraction algorithm.
type Method string

// Supported palette extraction methods.
const (
	MethodHistogram Method = "histogram"
	MethodDominant  Method = "dominant"
	MethodKMeans    Method = "kmeans"
)

// ValidMethods is the set of supported methods.
var ValidMethods = map[Method]bool{
	MethodHistogram: true,
	MethodDominant:  true,
	MethodKMeans:    true,
}

// ParseMethod validates a method name. Empty selects [MethodHistogram].
func ParseMethod(s string) (Method, error) {
	if s == "" {
		return MethodHistogram, nil
	}
	m := Method(strings.ToLower(s))
	if !ValidMethods[m] {
		return "", errors.New(errors.ErrCodeInvalidInput, "invalid palette method: %q (must be one of: histogram, dominant, kmeans)", s)
	}
	return m, nil
}
