// Package animate moves the hand along stroke paths and renders frames.
//
// A frame is emitted for every motion event: a path point farther than
// [DefaultThreshold] (relative to the canvas width) from the hand's current
// position. Points closer than that are collected and inked together with the
// next motion event, so the ink always catches up with the hand.
//
// Ink for the region being drawn is clipped to that region through a reveal
// mask, while ink of earlier regions stays visible underneath.
package animate

import (
	"context"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/matzehuels/drawreel/pkg/errors"
	"github.com/matzehuels/drawreel/pkg/raster"
	"github.com/matzehuels/drawreel/pkg/region"
	"github.com/matzehuels/drawreel/pkg/sink"
	"github.com/matzehuels/drawreel/pkg/stroke"
)

// Defaults for [Compositor].
const (
	DefaultThreshold = 0.05
	DefaultLineWidth = 5.0
	DefaultSpeed     = 1000 // ms per canvas width of travel
)

// Compositor renders frames for stroke paths.
type Compositor struct {
	Hand Hand
	// Speed is the virtual time in milliseconds the hand needs to travel
	// one canvas width.
	Speed int
	// Threshold is the minimum travel, as a fraction of the canvas width,
	// that triggers a motion event.
	Threshold float64
	LineWidth float64
}

// NewCompositor returns a compositor with default threshold and line width.
func NewCompositor(hand Hand, speed int) *Compositor {
	return &Compositor{
		Hand:      hand,
		Speed:     speed,
		Threshold: DefaultThreshold,
		LineWidth: DefaultLineWidth,
	}
}

// Draw animates one region's path and writes a frame per motion event to out.
// It returns the number of frames written. Cancellation is checked before
// every motion event.
func (c *Compositor) Draw(ctx context.Context, st *State, r region.Region, path stroke.Path, out sink.FrameSink) (int, error) {
	if len(path) == 0 {
		return 0, nil
	}

	holes := raster.Holes{Mask: raster.RevealMask(st.Width, st.Height, st.Background, st.Offset, r.Pixels)}
	ink := r.Color.NRGBA()
	st.pending = st.pending[:0]

	frames := 0
	for _, p := range path {
		cur := p.Pt().Add(st.Offset)
		d := c.distance(st.Position, cur, st.Width)
		if d <= c.Threshold {
			st.pending = append(st.pending, cur)
			continue
		}

		if err := ctx.Err(); err != nil {
			return frames, errors.Wrap(errors.ErrCodeCancelled, err, "drawing interrupted")
		}

		c.move(st, d)
		c.stroke(st, append(st.pending, cur), ink, holes)
		st.Position = cur
		st.pending = append(st.pending[:0], cur)

		if _, err := out.WriteFrame(ctx, c.compose(st)); err != nil {
			return frames, err
		}
		frames++
	}

	if len(st.pending) > 0 {
		c.stroke(st, st.pending, ink, holes)
	}
	st.pending = st.pending[:0]
	return frames, nil
}

func (c *Compositor) distance(a, b image.Point, width int) float64 {
	if width <= 0 {
		return 0
	}
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y)) / float64(width)
}

// move advances the virtual clock for a hand segment of normalized length d.
// Frames are sampled only after the segment completes.
func (c *Compositor) move(st *State, d float64) {
	st.Elapsed += time.Duration(math.Round(d * float64(c.Speed) * float64(time.Millisecond)))
}

// stroke draws the polyline pts into the ink layer, clipped by holes.
func (c *Compositor) stroke(st *State, pts []image.Point, col color.NRGBA, holes raster.Holes) {
	if len(pts) == 0 {
		return
	}
	lw := c.LineWidth
	if lw <= 0 {
		lw = DefaultLineWidth
	}

	dc := gg.NewContext(st.Width, st.Height)
	dc.SetColor(col)
	dc.SetLineWidth(lw)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	bounds := image.Rectangle{Min: pts[0], Max: pts[0].Add(image.Pt(1, 1))}
	single := true
	dc.MoveTo(float64(pts[0].X)+0.5, float64(pts[0].Y)+0.5)
	for _, p := range pts[1:] {
		if p != pts[0] {
			single = false
		}
		dc.LineTo(float64(p.X)+0.5, float64(p.Y)+0.5)
		bounds = bounds.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	if single {
		dc.ClearPath()
		dc.DrawCircle(float64(pts[0].X)+0.5, float64(pts[0].Y)+0.5, lw/2)
		dc.Fill()
	} else {
		dc.Stroke()
	}

	pad := int(math.Ceil(lw))
	bounds = bounds.Inset(-pad).Intersect(st.Ink.Rect)
	xdraw.DrawMask(st.Ink, bounds, dc.Image(), bounds.Min, holes, bounds.Min, xdraw.Over)
}

// compose returns a fresh frame: background, ink, then the hand sprite.
func (c *Compositor) compose(st *State) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, st.Width, st.Height))
	xdraw.Draw(frame, frame.Rect, image.NewUniform(st.Background), image.Point{}, xdraw.Src)
	xdraw.Draw(frame, frame.Rect, st.Ink, image.Point{}, xdraw.Over)
	c.Hand.drawAt(frame, st.Position)
	return frame
}
