package raster

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/matzehuels/drawreel/pkg/errors"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.NRGBA
		wantErr bool
	}{
		{"white", color.NRGBA{255, 255, 255, 255}, false},
		{"  Black ", color.NRGBA{0, 0, 0, 255}, false},
		{"#ff8000", color.NRGBA{255, 128, 0, 255}, false},
		{"ff8000", color.NRGBA{255, 128, 0, 255}, false},
		{"#fff", color.NRGBA{255, 255, 255, 255}, false},
		{"#zzzzzz", color.NRGBA{}, true},
		{"mauve-ish", color.NRGBA{}, true},
		{"", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidColor) {
					t.Errorf("ParseColor(%q) code = %q, want INVALID_COLOR", tt.input, errors.GetCode(err))
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestHex(t *testing.T) {
	if got := Hex(color.NRGBA{R: 0x12, G: 0xab, B: 0x0f, A: 255}); got != "#12ab0f" {
		t.Errorf("Hex = %s, want #12ab0f", got)
	}
	if got := Hex(color.White); got != "#ffffff" {
		t.Errorf("Hex(white) = %s", got)
	}
}

func TestMatch(t *testing.T) {
	a := color.NRGBA{100, 100, 100, 255}
	if !Match(a, color.NRGBA{150, 50, 100, 255}, 50) {
		t.Error("difference of exactly 50 should match with tolerance 50")
	}
	if Match(a, color.NRGBA{151, 100, 100, 255}, 50) {
		t.Error("difference of 51 should not match with tolerance 50")
	}
	if !Match(a, a, 0) {
		t.Error("identical colors should match with tolerance 0")
	}
}

func TestRevealMask(t *testing.T) {
	silhouette := []image.Point{{0, 0}, {1, 0}, {5, 5}}
	mask := RevealMask(4, 3, color.White, image.Pt(1, 1), silhouette)

	if mask.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Fatalf("mask bounds = %v", mask.Bounds())
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			a := mask.NRGBAAt(x, y).A
			hole := (x == 1 || x == 2) && y == 1
			if hole && a != 0 {
				t.Errorf("pixel (%d,%d) alpha = %d, want 0 inside silhouette", x, y, a)
			}
			if !hole && a != 255 {
				t.Errorf("pixel (%d,%d) alpha = %d, want 255 outside silhouette", x, y, a)
			}
		}
	}

	holes := Holes{Mask: mask}
	if got := holes.At(1, 1).(color.Alpha).A; got != 255 {
		t.Errorf("Holes inside cutout = %d, want 255", got)
	}
	if got := holes.At(0, 0).(color.Alpha).A; got != 0 {
		t.Errorf("Holes outside cutout = %d, want 0", got)
	}
	if got := holes.At(-1, 0).(color.Alpha).A; got != 0 {
		t.Errorf("Holes out of bounds = %d, want 0", got)
	}
}

func TestCutColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	red := color.NRGBA{255, 0, 0, 255}
	blue := color.NRGBA{0, 0, 255, 255}
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, blue)

	out := CutColor(img, red, 0)
	if out.NRGBAAt(0, 0).A != 0 {
		t.Error("matching pixel should become transparent")
	}
	if out.NRGBAAt(1, 0) != blue {
		t.Error("non-matching pixel should be unchanged")
	}
	if img.NRGBAAt(0, 0) != red {
		t.Error("CutColor must not modify its input")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	img := Fill(3, 2, color.NRGBA{10, 20, 30, 255})
	if err := Save(path, img); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Bounds().Dx() != 3 || got.Bounds().Dy() != 2 {
		t.Errorf("bounds = %v", got.Bounds())
	}
	if Hex(got.At(1, 1)) != "#0a141e" {
		t.Errorf("pixel = %s, want #0a141e", Hex(got.At(1, 1)))
	}
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("Load(missing) code = %q, want INVALID_IMAGE", errors.GetCode(err))
	}
}
