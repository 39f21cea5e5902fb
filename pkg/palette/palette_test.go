package palette

import (
	"image"
	"image/color"
	"slices"
	"testing"

	"github.com/matzehuels/drawreel/pkg/errors"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func halves(w, h int, left, right color.NRGBA) *image.NRGBA {
	img := solid(w, h, left)
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			img.SetNRGBA(x, y, right)
		}
	}
	return img
}

var (
	red   = color.NRGBA{R: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.NRGBA{A: 255}
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#ff0000", Color{R: 255}, false},
		{"00ff00", Color{G: 255}, false},
		{"#0000FF", Color{B: 255}, false},
		{" #102030 ", Color{R: 16, G: 32, B: 48}, false},
		{"#fff", Color{}, true},
		{"#gggggg", Color{}, true},
		{"", Color{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil {
			if !errors.Is(err, errors.ErrCodeInvalidColor) {
				t.Errorf("ParseHex(%q) code = %s, want %s", tt.in, errors.GetCode(err), errors.ErrCodeInvalidColor)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestColorHex(t *testing.T) {
	if got := (Color{R: 1, G: 171, B: 255}).Hex(); got != "#01abff" {
		t.Errorf("Hex() = %q, want %q", got, "#01abff")
	}
}

func TestNewDedupes(t *testing.T) {
	p := New(Color{R: 1}, Color{G: 2}, Color{R: 1}, Color{B: 3}, Color{G: 2})
	want := Palette{{R: 1}, {G: 2}, {B: 3}}
	if !slices.Equal(p, want) {
		t.Errorf("New() = %v, want %v", p, want)
	}
	if got := p.Index(Color{B: 3}); got != 2 {
		t.Errorf("Index() = %d, want 2", got)
	}
	if got := p.Index(Color{R: 9}); got != -1 {
		t.Errorf("Index(missing) = %d, want -1", got)
	}
}

func TestFromHex(t *testing.T) {
	p, err := FromHex([]string{"#000000", "#ffffff", "#000000"})
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if got := p.Hex(); !slices.Equal(got, []string{"#000000", "#ffffff"}) {
		t.Errorf("FromHex().Hex() = %v", got)
	}
	if _, err := FromHex([]string{"nope"}); err == nil {
		t.Error("FromHex(invalid) expected error")
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"", MethodHistogram, false},
		{"histogram", MethodHistogram, false},
		{"KMeans", MethodKMeans, false},
		{"dominant", MethodDominant, false},
		{"octree", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMethod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMethod(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractHistogramExact(t *testing.T) {
	img := halves(20, 10, red, blue)
	p, err := Extract(img, 2, MethodHistogram)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := p.Hex()
	slices.Sort(got)
	want := []string{"#0000ff", "#ff0000"}
	if !slices.Equal(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestExtractCapsAtDistinctColors(t *testing.T) {
	p, err := Extract(halves(8, 8, red, blue), 8, MethodHistogram)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(p) != 2 {
		t.Errorf("len(Extract()) = %d, want 2", len(p))
	}
}

func TestExtractDeterministic(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 8), B: uint8((x + y) * 2), A: 255})
		}
	}
	a, err := Extract(img, 6, MethodHistogram)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	b, _ := Extract(img, 6, MethodHistogram)
	if !slices.Equal(a, b) {
		t.Errorf("Extract() not deterministic: %v vs %v", a.Hex(), b.Hex())
	}
	if len(a) == 0 || len(a) > 6 {
		t.Errorf("len(Extract()) = %d, want 1..6", len(a))
	}
}

func TestExtractErrors(t *testing.T) {
	if _, err := Extract(solid(4, 4, red), 0, MethodHistogram); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Extract(k=0) error = %v, want INVALID_INPUT", err)
	}
	if _, err := Extract(solid(4, 4, red), 2, Method("octree")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Extract(bad method) error = %v, want INVALID_INPUT", err)
	}
	empty := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if _, err := Extract(empty, 2, MethodHistogram); !errors.Is(err, errors.ErrCodeNoColors) {
		t.Errorf("Extract(transparent) error = %v, want NO_COLORS", err)
	}
}

func TestExtractDominant(t *testing.T) {
	p, err := Extract(halves(40, 40, red, blue), 2, MethodDominant)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(p) < 1 || len(p) > 2 {
		t.Errorf("len(Extract()) = %d, want 1..2", len(p))
	}
}

func TestApplyNearest(t *testing.T) {
	img := halves(4, 2, color.NRGBA{R: 240, G: 10, B: 10, A: 255}, color.NRGBA{R: 5, G: 5, B: 250, A: 255})
	p := New(Color{R: 255}, Color{B: 255})
	q := Apply(img, p)

	if got := q.ColorIndexAt(0, 0); got != 0 {
		t.Errorf("index at (0,0) = %d, want 0", got)
	}
	if got := q.ColorIndexAt(3, 1); got != 1 {
		t.Errorf("index at (3,1) = %d, want 1", got)
	}
	if got := Unique(q).Hex(); !slices.Equal(got, []string{"#0000ff", "#ff0000"}) {
		t.Errorf("Unique() = %v", got)
	}
}

func TestApplyKeepsPaletteMembers(t *testing.T) {
	a := Color{R: 200, G: 100, B: 50}
	b := Color{R: 201, G: 100, B: 50}
	img := halves(4, 2, a.NRGBA(), b.NRGBA())
	q := Apply(img, New(a, b))

	if got := q.ColorIndexAt(0, 0); got != 0 {
		t.Errorf("index at (0,0) = %d, want 0", got)
	}
	if got := q.ColorIndexAt(3, 0); got != 1 {
		t.Errorf("index at (3,0) = %d, want 1", got)
	}
}

func TestUniqueSkipsUnused(t *testing.T) {
	p := New(Color{R: 255}, Color{G: 255}, Color{B: 255})
	q := Apply(solid(3, 3, color.NRGBA{G: 250, A: 255}), p)
	if got := Unique(q).Hex(); !slices.Equal(got, []string{"#00ff00"}) {
		t.Errorf("Unique() = %v, want [#00ff00]", got)
	}
}

func TestUniqueOfSorted(t *testing.T) {
	img := halves(4, 4, white, black)
	if got := UniqueOf(img).Hex(); !slices.Equal(got, []string{"#000000", "#ffffff"}) {
		t.Errorf("UniqueOf() = %v", got)
	}
}

func TestPaintRemovesSpeckle(t *testing.T) {
	img := solid(5, 5, white)
	img.SetNRGBA(2, 2, black)
	q := Apply(img, New(Color{R: 255, G: 255, B: 255}, Color{}))

	if got := Paint(q, 0); got != q {
		t.Error("Paint(radius 0) should return its input")
	}
	out := Paint(q, 1)
	for _, idx := range out.Pix {
		if idx != 0 {
			t.Fatalf("Paint() left speckle: %v", out.Pix)
		}
	}
	if q.ColorIndexAt(2, 2) != 1 {
		t.Error("Paint() modified its input")
	}
}
