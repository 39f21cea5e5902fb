// Package assets provides the embedded hand sprite.
//
// The sprite is embedded directly into the binary using go:embed, so a
// drawing can be rendered without any files besides the input image.
package assets

import (
	"bytes"
	_ "embed"
	"image"
	"image/png"
	"sync"
)

//go:embed hand.png
var handPNG []byte

// HandTip is the pencil tip inside the sprite, in sprite pixel coordinates.
// The compositor places the sprite so this pixel sits on the drawn point.
var HandTip = image.Pt(10, 250)

// HandPNG returns the raw PNG data of the hand sprite.
func HandPNG() []byte {
	return handPNG
}

// Decoded sprite (computed once on first access).
var (
	hand     image.Image
	handErr  error
	handOnce sync.Once
)

// Hand returns the decoded hand sprite.
func Hand() (image.Image, error) {
	handOnce.Do(func() {
		hand, handErr = png.Decode(bytes.NewReader(handPNG))
	})
	return hand, handErr
}
