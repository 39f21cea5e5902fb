// Package stroke orders the pixels of a region into a hand-drawn looking
// point sequence.
//
// Planning trims a random share of the pixels, shuffles the rest and then
// stable-sorts them by a jittered vertical key, so the hand sweeps a region
// roughly top to bottom while wandering horizontally. All randomness comes
// from the caller's *rand.Rand: the same seed, region and options always give
// the same path.
package stroke

import (
	"cmp"
	"image"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/drawreel/pkg/region"
)

// Defaults for [Options].
const (
	DefaultFuzziness = 3
	DefaultTrim      = 33
)

// Options controls path planning.
type Options struct {
	// Fuzziness is the width of the uniform jitter band added to each
	// point's y coordinate for ordering. 0 gives a strict vertical sweep.
	Fuzziness int
	// Trim is the percentage of pixels dropped before ordering, in [0, 100).
	Trim int
}

// Point is a pixel on a stroke path.
type Point struct {
	X, Y int
	// Key is the jittered sort key the point was ordered by.
	Key float64
}

// Pt returns the point as an image.Point.
func (p Point) Pt() image.Point { return image.Pt(p.X, p.Y) }

// Path is the ordered point sequence for one region.
type Path []Point

// NewRand returns the generator used for planning, seeded deterministically.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// Plan builds the stroke path for r. The region itself is not modified.
func Plan(r region.Region, opts Options, rng *rand.Rand) Path {
	pts := Trim(r.Pixels, opts.Trim, rng)
	if len(pts) == 0 {
		return nil
	}
	Shuffle(pts, rng)

	path := make(Path, len(pts))
	for i, p := range pts {
		path[i] = Point{X: p.X, Y: p.Y, Key: jitteredKey(p, opts.Fuzziness, rng)}
	}
	slices.SortStableFunc(path, func(a, b Point) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return path
}

// Trim returns a uniformly random subset of pixels that keeps
// n - round(n*pct/100) of them. The input slice is left untouched.
func Trim(pixels []image.Point, pct int, rng *rand.Rand) []image.Point {
	pct = max(0, min(pct, 99))
	n := len(pixels)
	keep := n - int(math.Round(float64(n)*float64(pct)/100))

	pts := slices.Clone(pixels)
	for i := 0; i < keep; i++ {
		j := i + rng.IntN(n-i)
		pts[i], pts[j] = pts[j], pts[i]
	}
	return pts[:keep]
}

// Shuffle permutes pts in place uniformly at random.
func Shuffle(pts []image.Point, rng *rand.Rand) {
	rng.Shuffle(len(pts), func(i, j int) {
		pts[i], pts[j] = pts[j], pts[i]
	})
}

func jitteredKey(p image.Point, fuzziness int, rng *rand.Rand) float64 {
	f := float64(max(fuzziness, 0))
	return float64(p.Y) + rng.Float64()*f - f/2
}
