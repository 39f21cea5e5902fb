package stroke

import (
	"image"
	"slices"
	"testing"

	"github.com/matzehuels/drawreel/pkg/region"
)

func block(w, h int) region.Region {
	var px []image.Point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px = append(px, image.Pt(x, y))
		}
	}
	return region.Region{Pixels: px, Bounds: image.Rect(0, 0, w, h)}
}

func TestPlanDeterministic(t *testing.T) {
	r := block(12, 9)
	opts := Options{Fuzziness: 3, Trim: 33}
	a := Plan(r, opts, NewRand(42))
	b := Plan(r, opts, NewRand(42))
	if !slices.Equal(a, b) {
		t.Error("Plan() with equal seeds produced different paths")
	}
	c := Plan(r, opts, NewRand(7))
	if slices.Equal(a, c) {
		t.Error("Plan() with different seeds produced identical paths")
	}
}

func TestPlanTrimCount(t *testing.T) {
	tests := []struct {
		n, trim, want int
	}{
		{10, 33, 7},
		{10, 0, 10},
		{100, 33, 67},
		{3, 50, 1},
		{1, 33, 1},
		{0, 33, 0},
	}
	for _, tt := range tests {
		r := block(tt.n, 1)
		got := Plan(r, Options{Trim: tt.trim}, NewRand(1))
		if len(got) != tt.want {
			t.Errorf("Plan(n=%d, trim=%d) len = %d, want %d", tt.n, tt.trim, len(got), tt.want)
		}
	}
}

func TestPlanSubsetWithoutDuplicates(t *testing.T) {
	r := block(20, 20)
	in := make(map[image.Point]bool)
	for _, p := range r.Pixels {
		in[p] = true
	}
	seen := make(map[image.Point]bool)
	for _, p := range Plan(r, Options{Fuzziness: 5, Trim: 40}, NewRand(3)) {
		if !in[p.Pt()] {
			t.Fatalf("point %v not in region", p.Pt())
		}
		if seen[p.Pt()] {
			t.Fatalf("point %v emitted twice", p.Pt())
		}
		seen[p.Pt()] = true
	}
}

func TestPlanZeroFuzzinessSortsByY(t *testing.T) {
	path := Plan(block(15, 15), Options{Fuzziness: 0, Trim: 10}, NewRand(9))
	for i := 1; i < len(path); i++ {
		if path[i].Y < path[i-1].Y {
			t.Fatalf("path[%d].Y = %d < path[%d].Y = %d", i, path[i].Y, i-1, path[i-1].Y)
		}
	}
}

func TestPlanKeysWithinBand(t *testing.T) {
	const f = 4
	path := Plan(block(10, 10), Options{Fuzziness: f}, NewRand(5))
	for i, p := range path {
		if d := p.Key - float64(p.Y); d < -f/2.0 || d >= f/2.0 {
			t.Errorf("path[%d] key offset = %v, want in [-2, 2)", i, d)
		}
		if i > 0 && p.Key < path[i-1].Key {
			t.Errorf("path not sorted by key at %d", i)
		}
	}
}

func TestTrimLeavesInput(t *testing.T) {
	r := block(5, 5)
	orig := slices.Clone(r.Pixels)
	Trim(r.Pixels, 50, NewRand(2))
	Plan(r, Options{Trim: 50}, NewRand(2))
	if !slices.Equal(orig, r.Pixels) {
		t.Error("Trim() modified the region pixels")
	}
}
