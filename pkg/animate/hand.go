package animate

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/matzehuels/drawreel/pkg/assets"
	"github.com/matzehuels/drawreel/pkg/errors"
	"github.com/matzehuels/drawreel/pkg/raster"
)

// Hand is the sprite drawn on top of every frame.
type Hand struct {
	Image image.Image
	// Tip is the pencil tip inside Image; it is placed on the drawn point.
	Tip image.Point
}

// DefaultHand returns the embedded sprite.
func DefaultHand() (Hand, error) {
	img, err := assets.Hand()
	if err != nil {
		return Hand{}, errors.Wrap(errors.ErrCodeInternal, err, "decode embedded hand sprite")
	}
	return Hand{Image: img, Tip: assets.HandTip}, nil
}

// LoadHand reads a custom sprite from path.
func LoadHand(path string, tip image.Point) (Hand, error) {
	img, err := raster.Load(path)
	if err != nil {
		return Hand{}, err
	}
	if !tip.In(img.Bounds()) {
		return Hand{}, errors.New(errors.ErrCodeInvalidInput, "hand tip %v outside sprite bounds %v", tip, img.Bounds())
	}
	return Hand{Image: img, Tip: tip}, nil
}

// Scale returns the sprite resized by factor with Catmull-Rom filtering.
// The tip moves with the sprite.
func (h Hand) Scale(factor float64) Hand {
	if factor <= 0 || factor == 1 || h.Image == nil {
		return h
	}
	b := h.Image.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*factor)))
	ht := max(1, int(math.Round(float64(b.Dy())*factor)))

	dst := image.NewNRGBA(image.Rect(0, 0, w, ht))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), h.Image, b, xdraw.Over, nil)

	tip := h.Tip.Sub(b.Min)
	return Hand{
		Image: dst,
		Tip: image.Pt(
			int(math.Round(float64(tip.X)*factor)),
			int(math.Round(float64(tip.Y)*factor)),
		),
	}
}

// drawAt composites the sprite onto dst with its tip on p.
func (h Hand) drawAt(dst xdraw.Image, p image.Point) {
	if h.Image == nil {
		return
	}
	b := h.Image.Bounds()
	origin := p.Sub(h.Tip.Sub(b.Min))
	xdraw.Draw(dst, image.Rectangle{Min: origin, Max: origin.Add(b.Size())}, h.Image, b.Min, xdraw.Over)
}
