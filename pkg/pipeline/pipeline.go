// Package pipeline turns a still image into a hand-drawing frame sequence.
//
// This package implements the complete resize → quantize → extract → plan →
// animate → encode pipeline used by the CLI. Stages run strictly forward.
// Regions of every color are extracted before drawing starts, so that
// [Runner.Analyze] can report them; the stroke path of a region is planned
// right before that region is drawn.
//
// # Architecture
//
// The pipeline consists of six stages:
//
//  1. Resize: Fit the input to the canvas (aspect-preserving cover + center crop)
//  2. Quantize: Reduce the canvas to a small palette of flat colors (cached)
//  3. Extract: Find the connected regions of each palette color
//  4. Plan: Order each region's pixels into a stroke path
//  5. Animate: Move the hand along the paths, writing one frame per motion event
//  6. Encode: Assemble the frames into a video with ffmpeg, exactly once
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Input = "portrait.jpg"
//	opts.Output = "out"
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Frames, result.Video)
package pipeline

import (
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/drawreel/pkg/animate"
	"github.com/matzehuels/drawreel/pkg/cache"
	"github.com/matzehuels/drawreel/pkg/errors"
	"github.com/matzehuels/drawreel/pkg/palette"
	"github.com/matzehuels/drawreel/pkg/raster"
	"github.com/matzehuels/drawreel/pkg/region"
	"github.com/matzehuels/drawreel/pkg/stroke"
	"github.com/matzehuels/drawreel/pkg/tools"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and config files
// =============================================================================

const (
	DefaultOutput        = "."
	DefaultColors        = 8
	DefaultWidth         = 640
	DefaultHeight        = 480
	DefaultSpeed         = animate.DefaultSpeed
	DefaultFuzziness     = stroke.DefaultFuzziness
	DefaultTrim          = stroke.DefaultTrim
	DefaultBackground    = "white"
	DefaultSeed          = uint64(42)
	DefaultPaletteMethod = string(palette.MethodHistogram)
	DefaultPaint         = 2
	DefaultTolerance     = region.DefaultTolerance
	DefaultMinRegion     = region.DefaultMinSize
	DefaultBackend       = string(tools.BackendNative)
	DefaultFPS           = tools.DefaultFPS
	DefaultHandScale     = 1.0

	// VideoName is the file name of the assembled video in the output directory.
	VideoName = "out.mp4"

	// MaxCanvas bounds both canvas dimensions.
	MaxCanvas = 8192
)

// ValidBackends is the set of supported raster backends.
var ValidBackends = map[string]bool{
	string(tools.BackendNative): true,
	string(tools.BackendMagick): true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a drawing run.
// The toml tags are the keys accepted in config files.
type Options struct {
	// Input and output
	Input  string `toml:"input"`
	Output string `toml:"output"`
	Music  string `toml:"music"`

	// Canvas
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
	Padding    int    `toml:"padding"` // reserved, has no effect

	// Quantization
	Colors        int    `toml:"colors"`
	PaletteMethod string `toml:"palette_method"`
	Paint         int    `toml:"paint"`
	Backend       string `toml:"backend"`

	// Regions and strokes
	Tolerance int    `toml:"tolerance"`
	MinRegion int    `toml:"min_region"`
	Fuzziness int    `toml:"fuzziness"`
	Trim      int    `toml:"trim"`
	Seed      uint64 `toml:"seed"`

	// Animation
	Speed     int     `toml:"speed"`
	FPS       int     `toml:"fps"`
	Hand      string  `toml:"hand"`
	HandTip   string  `toml:"hand_tip"` // "x,y" inside the custom sprite
	HandScale float64 `toml:"hand_scale"`

	// Runtime
	NoVideo     bool          `toml:"no_video"`
	ToolTimeout time.Duration `toml:"tool_timeout"`

	// Logger overrides the runner's logger (not serialized).
	Logger *log.Logger `toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// DefaultOptions returns options with every field at its default.
func DefaultOptions() Options {
	return Options{
		Output:        DefaultOutput,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		Background:    DefaultBackground,
		Colors:        DefaultColors,
		PaletteMethod: DefaultPaletteMethod,
		Paint:         DefaultPaint,
		Backend:       DefaultBackend,
		Tolerance:     DefaultTolerance,
		MinRegion:     DefaultMinRegion,
		Fuzziness:     DefaultFuzziness,
		Trim:          DefaultTrim,
		Seed:          DefaultSeed,
		Speed:         DefaultSpeed,
		FPS:           DefaultFPS,
		HandScale:     DefaultHandScale,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// Palette lists the drawn colors in drawing order.
	Palette []string

	// Regions and Noise count the drawn regions and discarded noise pixels.
	Regions int
	Noise   int

	// Frames is the number of frames written.
	Frames int

	// Video is the assembled video path, empty when no video was encoded.
	Video string

	// Animated is the virtual time the hand spent moving.
	Animated time.Duration

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ResizeTime   time.Duration
	QuantizeTime time.Duration
	DrawTime     time.Duration
	EncodeTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	QuantizeHit bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateBackend checks that a backend name is valid.
func ValidateBackend(name string) error {
	if !ValidBackends[name] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid backend: %q (must be one of: native, magick)", name)
	}
	return nil
}

// ParseHandTip parses an "x,y" sprite coordinate.
func ParseHandTip(s string) (image.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return image.Point{}, errors.New(errors.ErrCodeInvalidInput, "hand tip must be \"x,y\", got %q", s)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(xs))
	y, errY := strconv.Atoi(strings.TrimSpace(ys))
	if errX != nil || errY != nil || x < 0 || y < 0 {
		return image.Point{}, errors.New(errors.ErrCodeInvalidInput, "hand tip must be two non-negative integers, got %q", s)
	}
	return image.Pt(x, y), nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and fills in defaults for fields
// whose zero value is not meaningful. Fuzziness, trim, paint, tolerance and
// seed keep explicit zeros.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()

	if err := o.ValidateForAnalyze(); err != nil {
		return err
	}
	if err := errors.ValidateOutputDir(o.Output); err != nil {
		return err
	}
	if err := errors.ValidateOptionalFile("music", o.Music); err != nil {
		return err
	}
	if err := errors.ValidateRange("speed", o.Speed, 1, 1_000_000); err != nil {
		return err
	}
	if err := errors.ValidateRange("fuzziness", o.Fuzziness, 0, MaxCanvas); err != nil {
		return err
	}
	if err := errors.ValidateRange("trim", o.Trim, 0, 99); err != nil {
		return err
	}
	if err := errors.ValidateRange("fps", o.FPS, 1, 240); err != nil {
		return err
	}
	if o.HandScale <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "hand scale must be positive, got %g", o.HandScale)
	}
	if err := errors.ValidateOptionalFile("hand sprite", o.Hand); err != nil {
		return err
	}
	if o.Hand != "" && o.HandTip != "" {
		if _, err := ParseHandTip(o.HandTip); err != nil {
			return err
		}
	}
	if o.Padding < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "padding must be >= 0, got %d", o.Padding)
	}

	o.validated = true
	return nil
}

// ValidateForAnalyze checks the fields needed by the resize, quantize and
// extract stages.
func (o *Options) ValidateForAnalyze() error {
	o.SetDefaults()

	if err := errors.ValidateInputPath(o.Input); err != nil {
		return err
	}
	if err := errors.ValidateRange("width", o.Width, 1, MaxCanvas); err != nil {
		return err
	}
	if err := errors.ValidateRange("height", o.Height, 1, MaxCanvas); err != nil {
		return err
	}
	if err := errors.ValidateRange("colors", o.Colors, 1, palette.MaxColors); err != nil {
		return err
	}
	if _, err := raster.ParseColor(o.Background); err != nil {
		return err
	}
	m, err := palette.ParseMethod(o.PaletteMethod)
	if err != nil {
		return err
	}
	o.PaletteMethod = string(m)
	o.Backend = strings.ToLower(o.Backend)
	if err := ValidateBackend(o.Backend); err != nil {
		return err
	}
	if err := errors.ValidateRange("paint", o.Paint, 0, 16); err != nil {
		return err
	}
	if err := errors.ValidateRange("tolerance", o.Tolerance, 0, 255); err != nil {
		return err
	}
	return errors.ValidateRange("min region", o.MinRegion, 1, MaxCanvas*MaxCanvas)
}

// SetDefaults fills fields whose zero value is invalid.
func (o *Options) SetDefaults() {
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	if o.Colors == 0 {
		o.Colors = DefaultColors
	}
	if o.PaletteMethod == "" {
		o.PaletteMethod = DefaultPaletteMethod
	}
	if o.Backend == "" {
		o.Backend = DefaultBackend
	}
	if o.MinRegion == 0 {
		o.MinRegion = DefaultMinRegion
	}
	if o.Speed == 0 {
		o.Speed = DefaultSpeed
	}
	if o.FPS == 0 {
		o.FPS = DefaultFPS
	}
	if o.HandScale == 0 {
		o.HandScale = DefaultHandScale
	}
}

// QuantizeKeyOpts returns cache key options for the quantize stage.
func (o *Options) QuantizeKeyOpts() cache.QuantizeKeyOpts {
	return cache.QuantizeKeyOpts{
		Width:  o.Width,
		Height: o.Height,
		Colors: o.Colors,
		Method: o.PaletteMethod,
		Paint:  o.Paint,
		Tool:   o.Backend,
	}
}

// RegionOptions returns the region extraction options.
func (o *Options) RegionOptions() region.Options {
	return region.Options{Tolerance: o.Tolerance, MinSize: o.MinRegion}
}

// StrokeOptions returns the stroke planning options.
func (o *Options) StrokeOptions() stroke.Options {
	return stroke.Options{Fuzziness: o.Fuzziness, Trim: o.Trim}
}

// ToolConfig returns the raster backend configuration for workDir.
func (o *Options) ToolConfig(workDir string) tools.Config {
	return tools.Config{
		WorkDir:   workDir,
		Method:    o.PaletteMethod,
		Paint:     o.Paint,
		Tolerance: o.Tolerance,
	}
}
