package pipeline

import (
	"context"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/drawreel/pkg/animate"
	"github.com/matzehuels/drawreel/pkg/cache"
	"github.com/matzehuels/drawreel/pkg/errors"
	"github.com/matzehuels/drawreel/pkg/observability"
	"github.com/matzehuels/drawreel/pkg/palette"
	"github.com/matzehuels/drawreel/pkg/raster"
	"github.com/matzehuels/drawreel/pkg/region"
	"github.com/matzehuels/drawreel/pkg/sink"
	"github.com/matzehuels/drawreel/pkg/stroke"
	"github.com/matzehuels/drawreel/pkg/tools"
)

// Stage names reported to observability hooks.
const (
	StageResize   = "resize"
	StageQuantize = "quantize"
	StageDraw     = "draw"
	StageEncode   = "encode"
)

// Runner encapsulates pipeline execution with caching.
//
// Raster and Encoder are optional: when nil, the raster backend named by
// Options.Backend and ffmpeg from PATH are used.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	Raster  tools.Raster
	Encoder tools.Encoder
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Analysis is the result of the resize, quantize and extract stages.
type Analysis struct {
	RunID string
	// Image is the quantized canvas.
	Image image.Image
	// QuantizedPath is the quantized raster on disk, valid until the work
	// directory is removed.
	QuantizedPath string
	Colors        []ColorRegions
	QuantizeHit   bool
	ResizeTime    time.Duration
	QuantizeTime  time.Duration
}

// ColorRegions holds the regions found for one palette color.
type ColorRegions struct {
	Color   palette.Color
	Regions []region.Region
	Noise   int
}

// Summary returns the size statistics of the color's regions.
func (c ColorRegions) Summary() region.Summary {
	return region.Summarize(c.Regions)
}

// quantized is the cached payload of the quantize stage.
type quantized struct {
	Colors []string `json:"colors"`
	PNG    []byte   `json:"png"`
}

// Execute runs the complete pipeline and encodes the video once, after the
// last frame has been written. Fatal errors and cancellation never reach the
// encoder; frames written so far stay on disk.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	logger := r.logger(opts).With("run", runID)

	workDir, err := os.MkdirTemp("", "drawreel-*")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create work directory")
	}
	defer os.RemoveAll(workDir)

	an, err := r.analyze(ctx, opts, workDir, runID, logger)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: runID}
	result.Stats.ResizeTime = an.ResizeTime
	result.Stats.QuantizeTime = an.QuantizeTime
	result.CacheInfo.QuantizeHit = an.QuantizeHit
	for _, c := range an.Colors {
		result.Palette = append(result.Palette, c.Color.Hex())
	}

	out := sink.NewDir(opts.Output)
	stale, err := out.RemoveStale()
	if err != nil {
		return result, err
	}
	if stale > 0 {
		logger.Debug("removed stale frames", "count", stale, "dir", opts.Output)
	}
	drawStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, StageDraw)
	st, err := r.draw(ctx, opts, an, out, result, logger)
	result.Stats.DrawTime = time.Since(drawStart)
	observability.Pipeline().OnStageComplete(ctx, StageDraw, result.Stats.DrawTime, err)
	result.Frames = out.Frames()
	if err != nil {
		logger.Warn("drawing stopped", "frames", result.Frames, "dir", opts.Output)
		return result, err
	}
	result.Animated = st.Elapsed

	logger.Info("drew frames",
		"frames", result.Frames,
		"regions", result.Regions,
		"animated", st.Elapsed,
		"duration", result.Stats.DrawTime)

	switch {
	case opts.NoVideo:
		logger.Info("skipping video", "frames", out.Pattern())
		return result, nil
	case result.Frames == 0:
		logger.Warn("no motion events, nothing to encode")
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return result, errors.Wrap(errors.ErrCodeCancelled, err, "interrupted before encoding")
	}

	req := tools.EncodeRequest{
		Pattern: out.Pattern(),
		Frames:  result.Frames,
		FPS:     opts.FPS,
		Audio:   opts.Music,
		Output:  filepath.Join(opts.Output, VideoName),
	}
	encodeStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, StageEncode)
	video, err := r.encoder(opts).Encode(ctx, req)
	result.Stats.EncodeTime = time.Since(encodeStart)
	observability.Pipeline().OnStageComplete(ctx, StageEncode, result.Stats.EncodeTime, err)
	observability.Pipeline().OnEncode(ctx, req.Output, result.Frames, result.Stats.EncodeTime, err)
	if err != nil {
		return result, err
	}
	result.Video = video

	logger.Info("encoded video",
		"file", video,
		"fps", opts.FPS,
		"duration", result.Stats.EncodeTime)
	return result, nil
}

// Analyze runs the resize, quantize and extract stages without drawing.
// The quantized raster is written to workDir.
func (r *Runner) Analyze(ctx context.Context, opts Options, workDir string) (*Analysis, error) {
	if err := opts.ValidateForAnalyze(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	return r.analyze(ctx, opts, workDir, runID, r.logger(opts).With("run", runID))
}

func (r *Runner) analyze(ctx context.Context, opts Options, workDir, runID string, logger *log.Logger) (*Analysis, error) {
	an := &Analysis{RunID: runID}
	rt, err := r.raster(opts, workDir)
	if err != nil {
		return nil, err
	}
	if opts.Padding != 0 {
		logger.Debug("padding is reserved and has no effect", "padding", opts.Padding)
	}

	// Stage 1: Resize
	var resized string
	an.ResizeTime, err = stage(ctx, StageResize, func() (err error) {
		resized, err = rt.Resize(ctx, opts.Input, opts.Width, opts.Height)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("resized image",
		"width", opts.Width,
		"height", opts.Height,
		"duration", an.ResizeTime)

	// Stage 2: Quantize
	var colors []string
	an.QuantizeTime, err = stage(ctx, StageQuantize, func() (err error) {
		an.QuantizedPath, colors, an.QuantizeHit, err = r.quantize(ctx, rt, opts, resized, workDir)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(colors) == 0 {
		return nil, errors.New(errors.ErrCodeNoColors, "quantization produced no colors")
	}
	pal, err := palette.FromHex(colors)
	if err != nil {
		return nil, err
	}
	logger.Info("quantized image",
		"colors", len(pal),
		"cached", an.QuantizeHit,
		"duration", an.QuantizeTime)

	an.Image, err = raster.Load(an.QuantizedPath)
	if err != nil {
		return nil, err
	}

	// Stage 3: Extract
	for _, c := range pal {
		res := region.Extract(an.Image, c, opts.RegionOptions())
		an.Colors = append(an.Colors, ColorRegions{Color: c, Regions: res.Regions, Noise: res.Noise})
		logger.Debug("extracted regions",
			"color", c.Hex(),
			"regions", len(res.Regions),
			"pixels", res.Pixels(),
			"noise", res.Noise)
	}
	return an, nil
}

// quantize runs the quantize stage through the cache. The cache key is the
// source file's content hash plus the options the result depends on.
func (r *Runner) quantize(ctx context.Context, rt tools.Raster, opts Options, resized, workDir string) (string, []string, bool, error) {
	var key string
	if sum, err := cache.HashFile(opts.Input); err == nil {
		key = r.Keyer.QuantizeKey(sum, opts.QuantizeKeyOpts())
	}

	if key != "" {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var q quantized
			if err := json.Unmarshal(data, &q); err == nil && len(q.Colors) > 0 {
				path := filepath.Join(workDir, "quantized.png")
				if err := os.WriteFile(path, q.PNG, 0o644); err == nil {
					observability.Cache().OnCacheHit(ctx, StageQuantize)
					return path, q.Colors, true, nil
				}
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, StageQuantize)
	}

	path, err := rt.Quantize(ctx, resized, opts.Colors)
	if err != nil {
		return "", nil, false, err
	}
	colors, err := rt.UniqueColors(ctx, path)
	if err != nil {
		return "", nil, false, err
	}

	if key != "" {
		if png, err := os.ReadFile(path); err == nil {
			if data, err := json.Marshal(quantized{Colors: colors, PNG: png}); err == nil {
				if err := r.Cache.Set(ctx, key, data, cache.TTLQuantized); err == nil {
					observability.Cache().OnCacheSet(ctx, StageQuantize, len(data))
				}
			}
		}
	}
	return path, colors, false, nil
}

// draw runs the planning and animation stages for every color in order.
func (r *Runner) draw(ctx context.Context, opts Options, an *Analysis, out sink.FrameSink, result *Result, logger *log.Logger) (*animate.State, error) {
	hand, err := loadHand(opts)
	if err != nil {
		return nil, err
	}
	bg, err := raster.ParseColor(opts.Background)
	if err != nil {
		return nil, err
	}

	b := an.Image.Bounds()
	st := animate.NewState(b.Dx(), b.Dy(), bg)
	st.Offset = image.Point{}.Sub(b.Min)
	comp := animate.NewCompositor(hand, opts.Speed)
	rng := stroke.NewRand(opts.Seed)

	hooks := observability.Pipeline()
	frames := sink.Observed{
		FrameSink: out,
		OnFrame:   func(i int) { hooks.OnFrame(ctx, i) },
	}

	for i, c := range an.Colors {
		hooks.OnColorStart(ctx, c.Color.Hex(), i, len(an.Colors), len(c.Regions))
		result.Noise += c.Noise

		colorFrames := 0
		for _, reg := range c.Regions {
			path := stroke.Plan(reg, opts.StrokeOptions(), rng)
			if len(path) == 0 {
				logger.Debug("skipping empty path", "color", c.Color.Hex(), "bounds", reg.Bounds)
				continue
			}
			n, err := comp.Draw(ctx, st, reg, path, frames)
			colorFrames += n
			if err != nil {
				return st, err
			}
			result.Regions++
		}
		logger.Debug("drew color",
			"color", c.Color.Hex(),
			"regions", len(c.Regions),
			"frames", colorFrames)
	}
	return st, nil
}

func loadHand(opts Options) (animate.Hand, error) {
	var (
		hand animate.Hand
		err  error
	)
	if opts.Hand != "" {
		tip := image.Point{}
		if opts.HandTip != "" {
			if tip, err = ParseHandTip(opts.HandTip); err != nil {
				return animate.Hand{}, err
			}
		}
		hand, err = animate.LoadHand(opts.Hand, tip)
	} else {
		hand, err = animate.DefaultHand()
	}
	if err != nil {
		return animate.Hand{}, err
	}
	return hand.Scale(opts.HandScale), nil
}

func (r *Runner) raster(opts Options, workDir string) (tools.Raster, error) {
	if r.Raster != nil {
		return r.Raster, nil
	}
	rt, err := tools.NewRaster(opts.Backend, opts.ToolConfig(workDir))
	if err != nil {
		return nil, err
	}
	if m, ok := rt.(*tools.Magick); ok {
		m.Timeout = opts.ToolTimeout
	}
	return rt, nil
}

func (r *Runner) encoder(opts Options) tools.Encoder {
	if r.Encoder != nil {
		return r.Encoder
	}
	f := tools.NewFFmpeg()
	f.Timeout = opts.ToolTimeout
	return f
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

// stage runs fn between stage hooks and returns its duration.
func stage(ctx context.Context, name string, fn func() error) (time.Duration, error) {
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, name)
	start := time.Now()
	err := fn()
	d := time.Since(start)
	hooks.OnStageComplete(ctx, name, d, err)
	return d, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
