package animate

import (
	"image"
	"image/color"
	"time"
)

// State is the mutable rendering state of one drawing. It is owned by a
// single render pass and carried across regions and colors.
type State struct {
	Width, Height int
	Background    color.NRGBA
	// Offset is where the source image's origin sits on the canvas.
	Offset image.Point

	// Position is the hand position in canvas coordinates, updated on
	// every motion event.
	Position image.Point
	// Ink accumulates every stroke drawn so far. It is never reset.
	Ink *image.RGBA
	// Elapsed is the virtual time spent moving the hand.
	Elapsed time.Duration

	// pending holds the points passed since the last motion event of the
	// current region. The first entry is the last inked point, if any.
	pending []image.Point
}

// NewState returns a blank w×h state with the hand resting in the
// bottom-right corner.
func NewState(w, h int, background color.NRGBA) *State {
	return &State{
		Width:      w,
		Height:     h,
		Background: background,
		Position:   image.Pt(w-1, h-1),
		Ink:        image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

// Pending returns a copy of the uninked path history.
func (s *State) Pending() []image.Point {
	return append([]image.Point(nil), s.pending...)
}
