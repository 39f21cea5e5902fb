// Package raster holds the image primitives shared by the pipeline stages:
// decoding and encoding, color identity, and the cutout masks used to reveal
// one region at a time.
package raster

import (
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/drawreel/pkg/errors"
)

// Load decodes the image at path, honouring EXIF orientation.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode %s", path)
	}
	return img, nil
}

// Save encodes img to path; the format follows the file extension.
// PNG output favours encoding speed since frames are written in bulk.
func Save(path string, img image.Image) error {
	if err := imaging.Save(img, path, imaging.PNGCompressionLevel(png.BestSpeed)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", path)
	}
	return nil
}

// NRGBA returns img as *image.NRGBA with bounds starting at the origin.
// An *image.NRGBA already anchored at the origin is returned as is.
func NRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// Fill returns a w×h image filled with c.
func Fill(w, h int, c color.Color) *image.NRGBA {
	return imaging.New(w, h, c)
}
