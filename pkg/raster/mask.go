package raster

import (
	"image"
	"image/color"
)

// RevealMask returns a w×h canvas filled with bg in which every pixel of
// silhouette, shifted by offset, is fully transparent.
func RevealMask(w, h int, bg color.Color, offset image.Point, silhouette []image.Point) *image.NRGBA {
	mask := Fill(w, h, opaque(bg))
	for _, p := range silhouette {
		q := p.Add(offset)
		if !q.In(mask.Rect) {
			continue
		}
		i := mask.PixOffset(q.X, q.Y)
		mask.Pix[i+0] = 0
		mask.Pix[i+1] = 0
		mask.Pix[i+2] = 0
		mask.Pix[i+3] = 0
	}
	return mask
}

// CutColor returns a copy of img in which pixels matching c within tolerance
// are fully transparent.
func CutColor(img image.Image, c color.NRGBA, tolerance int) *image.NRGBA {
	src := NRGBA(img)
	out := image.NewNRGBA(src.Rect)
	copy(out.Pix, src.Pix)
	for i := 0; i < len(out.Pix); i += 4 {
		px := color.NRGBA{out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3]}
		if Match(px, c, tolerance) {
			out.Pix[i+0], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = 0, 0, 0, 0
		}
	}
	return out
}

// Holes exposes the transparent area of a mask as an alpha mask: opaque where
// the mask is transparent and transparent where it is opaque. Drawing through
// Holes keeps only what falls inside the cutout.
type Holes struct {
	Mask *image.NRGBA
}

// ColorModel implements image.Image.
func (h Holes) ColorModel() color.Model { return color.AlphaModel }

// Bounds implements image.Image.
func (h Holes) Bounds() image.Rectangle { return h.Mask.Rect }

// At implements image.Image.
func (h Holes) At(x, y int) color.Color {
	if !(image.Point{x, y}).In(h.Mask.Rect) {
		return color.Alpha{}
	}
	return color.Alpha{A: 255 - h.Mask.Pix[h.Mask.PixOffset(x, y)+3]}
}

// opaque drops the alpha channel so the mask background never blends.
func opaque(c color.Color) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 255
	return n
}
