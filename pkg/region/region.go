// Package region finds connected areas of a single color in a quantized image.
//
// A region is a maximal 8-connected set of pixels whose color matches the
// target within a per-channel tolerance. Components smaller than the minimum
// size are counted as noise instead of being emitted.
package region

import (
	"image"
	"image/color"
	"slices"

	"github.com/matzehuels/drawreel/pkg/palette"
	"github.com/matzehuels/drawreel/pkg/raster"
)

// Defaults for [Options].
const (
	DefaultTolerance = 50
	DefaultMinSize   = 10
)

// Options controls region matching.
type Options struct {
	// Tolerance is the maximum absolute per-channel difference (0-255) for a
	// pixel to match the target color. Inclusive.
	Tolerance int
	// MinSize is the minimum pixel count of an emitted region.
	MinSize int
}

// Region is one connected area of a color.
type Region struct {
	Color  palette.Color
	Pixels []image.Point   // image coordinates in raster order
	Bounds image.Rectangle // smallest rectangle containing Pixels
}

// Len returns the pixel count.
func (r Region) Len() int { return len(r.Pixels) }

// Result holds the regions found for one color.
type Result struct {
	Regions []Region
	Noise   int // matching pixels dropped as part of undersized components
}

// Pixels returns the total pixel count over all regions.
func (r Result) Pixels() int {
	n := 0
	for _, reg := range r.Regions {
		n += reg.Len()
	}
	return n
}

var neighbours = [8]image.Point{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Extract returns the regions of img matching c. Regions are ordered by the
// raster position (top-to-bottom, left-to-right) of their first pixel.
// Every matching pixel ends up in exactly one region or in the noise count.
func Extract(img image.Image, c palette.Color, opts Options) Result {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Result{}
	}

	target := c.NRGBA()
	match := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			match[y*w+x] = px.A != 0 && raster.Match(px, target, opts.Tolerance)
		}
	}

	var res Result
	visited := make([]bool, w*h)
	var stack []int
	for start := range match {
		if !match[start] || visited[start] {
			continue
		}

		var comp []int
		visited[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, i)

			x, y := i%w, i/w
			for _, d := range neighbours {
				nx, ny := x+d.X, y+d.Y
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if match[j] && !visited[j] {
					visited[j] = true
					stack = append(stack, j)
				}
			}
		}

		if len(comp) < opts.MinSize {
			res.Noise += len(comp)
			continue
		}
		res.Regions = append(res.Regions, newRegion(c, comp, w, b.Min))
	}
	return res
}

func newRegion(c palette.Color, comp []int, w int, origin image.Point) Region {
	slices.Sort(comp)
	pixels := make([]image.Point, len(comp))
	bounds := image.Rectangle{}
	for k, i := range comp {
		p := image.Pt(origin.X+i%w, origin.Y+i/w)
		pixels[k] = p
		bounds = bounds.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return Region{Color: c, Pixels: pixels, Bounds: bounds}
}
