package palette

import (
	"image"
	"image/color"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Apply maps every pixel of img to its nearest palette color by CIE Lab
// distance. Fully transparent pixels map to the nearest color of opaque
// white so the output stays fully opaque. Pixels that already hold a palette
// color keep it. Distances are computed once per distinct source color.
func Apply(img image.Image, p Palette) *image.Paletted {
	bounds := img.Bounds()
	out := image.NewPaletted(image.Rect(0, 0, bounds.Dx(), bounds.Dy()), p.ColorPalette())
	if len(p) == 0 {
		return out
	}

	labs := make([][3]float64, len(p))
	for i, c := range p {
		l, a, b := c.colorful().Lab()
		labs[i] = [3]float64{l, a, b}
	}

	memo := make(map[color.NRGBA]uint8)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			c.A = 255
			idx, ok := memo[c]
			if !ok {
				if i := p.Index(Color{R: c.R, G: c.G, B: c.B}); i >= 0 {
					idx = uint8(i)
				} else {
					l, a, b := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Lab()
					idx = uint8(nearestLab(labs, [3]float64{l, a, b}))
				}
				memo[c] = idx
			}
			out.SetColorIndex(x-bounds.Min.X, y-bounds.Min.Y, idx)
		}
	}
	return out
}

// Paint applies a mode filter of the given radius over palette indices,
// flattening speckles the way an oil-paint pass does. Ties keep the center
// pixel's index when it is among the most frequent, otherwise the lowest
// index wins. A radius of 0 returns img unchanged.
func Paint(img *image.Paletted, radius int) *image.Paletted {
	if radius <= 0 {
		return img
	}
	b := img.Bounds()
	out := image.NewPaletted(b, img.Palette)
	counts := make([]int, max(len(img.Palette), 1))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			clear(counts)
			for yy := max(b.Min.Y, y-radius); yy <= min(b.Max.Y-1, y+radius); yy++ {
				row := img.Pix[img.PixOffset(b.Min.X, yy):]
				for xx := max(b.Min.X, x-radius); xx <= min(b.Max.X-1, x+radius); xx++ {
					counts[row[xx-b.Min.X]]++
				}
			}
			center := img.ColorIndexAt(x, y)
			best := center
			for i, n := range counts {
				if n > counts[best] {
					best = uint8(i)
				}
			}
			out.SetColorIndex(x, y, best)
		}
	}
	return out
}

// Unique returns the palette colors actually used by img, sorted by
// ascending hex identity.
func Unique(img *image.Paletted) Palette {
	used := make([]bool, len(img.Palette))
	for _, idx := range img.Pix {
		if int(idx) < len(used) {
			used[idx] = true
		}
	}
	var out Palette
	for i, ok := range used {
		if !ok {
			continue
		}
		c := color.NRGBAModel.Convert(img.Palette[i]).(color.NRGBA)
		out = append(out, Color{R: c.R, G: c.G, B: c.B})
	}
	out = New(out...)
	sortByHex(out)
	return out
}

// UniqueOf enumerates the distinct opaque colors of an arbitrary image,
// sorted by ascending hex identity.
func UniqueOf(img image.Image) Palette {
	if p, ok := img.(*image.Paletted); ok {
		return Unique(p)
	}
	seen := make(map[Color]bool)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			seen[Color{R: c.R, G: c.G, B: c.B}] = true
		}
	}
	out := make(Palette, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sortByHex(out)
	return out
}

func sortByHex(p Palette) {
	slices.SortFunc(p, func(a, b Color) int {
		return strings.Compare(a.Hex(), b.Hex())
	})
}
