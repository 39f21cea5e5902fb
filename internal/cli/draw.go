package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/drawreel/pkg/pipeline"
	"github.com/matzehuels/drawreel/pkg/sink"
)

// cacheFlags selects the cache backend of a command.
type cacheFlags struct {
	noCache bool   // disable caching entirely
	url     string // redis:// URL, empty for the file cache
}

// drawFlags holds the flags of the draw command that are not pipeline options.
type drawFlags struct {
	cacheFlags
	noProgress bool // disable the terminal progress view
}

// bindAnalyzeFlags registers the flags shared by every command that resizes,
// quantizes and extracts regions.
func bindAnalyzeFlags(cmd *cobra.Command, opts *pipeline.Options) {
	f := cmd.Flags()
	f.StringVarP(&opts.Input, "input", "i", opts.Input, "source image (required)")
	f.IntVar(&opts.Width, "width", opts.Width, "canvas width in pixels")
	f.IntVar(&opts.Height, "height", opts.Height, "canvas height in pixels")
	f.IntVarP(&opts.Colors, "colors", "c", opts.Colors, "number of palette colors")
	f.StringVar(&opts.PaletteMethod, "palette-method", opts.PaletteMethod, "palette method: histogram, dominant, kmeans")
	f.IntVar(&opts.Paint, "paint", opts.Paint, "paint filter radius applied after quantization (0 disables)")
	f.StringVar(&opts.Backend, "backend", opts.Backend, "raster backend: native, magick")
	f.IntVar(&opts.Tolerance, "tolerance", opts.Tolerance, "per-channel color match tolerance (0-255)")
	f.IntVar(&opts.MinRegion, "min-region", opts.MinRegion, "regions smaller than this many pixels are noise")
	f.StringVar(&opts.Background, "background", opts.Background, "canvas color (name or #rrggbb)")
	f.DurationVar(&opts.ToolTimeout, "tool-timeout", opts.ToolTimeout, "timeout per external tool call (0 disables)")
}

// bindDrawFlags registers the animation and output flags of the draw command.
func bindDrawFlags(cmd *cobra.Command, opts *pipeline.Options, flags *drawFlags) {
	f := cmd.Flags()
	f.StringVarP(&opts.Output, "output", "o", opts.Output, "output directory for frames and video")
	f.StringVar(&opts.Music, "music", opts.Music, "audio track muxed into the video")
	f.IntVar(&opts.Padding, "padding", opts.Padding, "reserved, has no effect")
	f.IntVarP(&opts.Speed, "speed", "s", opts.Speed, "milliseconds per normalized distance unit")
	f.IntVar(&opts.Fuzziness, "fuzziness", opts.Fuzziness, "vertical jitter band of the stroke order")
	f.IntVar(&opts.Trim, "trim", opts.Trim, "percentage of region pixels dropped from each path (0-99)")
	f.Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed for reproducible strokes")
	f.IntVar(&opts.FPS, "fps", opts.FPS, "video frame rate")
	f.StringVar(&opts.Hand, "hand", opts.Hand, "custom hand sprite (PNG with alpha)")
	f.StringVar(&opts.HandTip, "hand-tip", opts.HandTip, "pencil tip inside the custom sprite as x,y")
	f.Float64Var(&opts.HandScale, "hand-scale", opts.HandScale, "scale factor of the hand sprite")
	f.BoolVar(&opts.NoVideo, "no-video", opts.NoVideo, "write frames only, skip ffmpeg")
	f.BoolVar(&flags.noProgress, "no-progress", false, "disable the progress view")
	bindCacheFlags(cmd, &flags.cacheFlags)
}

func bindCacheFlags(cmd *cobra.Command, flags *cacheFlags) {
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&flags.url, "cache-url", "", "shared cache, e.g. redis://localhost:6379/0")
}

// runDraw executes the full pipeline and prints a summary.
func (c *CLI) runDraw(ctx context.Context, opts pipeline.Options, flags drawFlags) error {
	logger := c.Logger
	var view *progressView
	if !flags.noProgress && isTerminal(os.Stderr) {
		view = startProgress(ctx, os.Stderr)
		defer view.Stop()
		logger = c.Logger.With()
		logger.SetOutput(view)
	}
	ctx = withLogger(ctx, logger)
	opts.Logger = logger

	runner, err := c.newRunner(ctx, flags.noCache, flags.url)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	result, err := runner.Execute(ctx, opts)
	view.Stop()
	if err != nil {
		if result != nil && result.Frames > 0 {
			printWarning("%d frames kept in %s", result.Frames, opts.Output)
		}
		return err
	}
	prog.done(fmt.Sprintf("Drew %s", filepath.Base(opts.Input)))

	printSuccess("Drew %d frames", result.Frames)
	printKeyValue("Palette", strings.Join(result.Palette, " "))
	printStats(result.Frames, result.Regions, result.CacheInfo.QuantizeHit)
	if result.Video != "" {
		printFile(result.Video)
	} else if result.Frames > 0 {
		printFile(filepath.Join(opts.Output, sink.Pattern))
	}
	return nil
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
