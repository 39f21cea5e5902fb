package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"
	"github.com/spf13/cobra"

	"github.com/matzehuels/drawreel/pkg/errors"
	"github.com/matzehuels/drawreel/pkg/pipeline"
	"github.com/matzehuels/drawreel/pkg/tools"
)

// paletteFlags holds the flags of the palette command.
type paletteFlags struct {
	cacheFlags
	pdf    string // palette sheet output path
	layers string // directory for per-color masks
}

// paletteCommand creates the palette command, which runs the resize,
// quantize and extract stages and reports what would be drawn.
func (c *CLI) paletteCommand() *cobra.Command {
	opts := pipeline.DefaultOptions()
	var flags paletteFlags

	cmd := &cobra.Command{
		Use:   "palette",
		Short: "Show the palette and regions an image would be drawn with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.applyConfig(cmd, &opts); err != nil {
				return err
			}
			return c.runPalette(cmd.Context(), opts, flags)
		},
	}

	bindAnalyzeFlags(cmd, &opts)
	bindCacheFlags(cmd, &flags.cacheFlags)
	cmd.Flags().StringVar(&flags.pdf, "pdf", "", "write a palette sheet to this PDF file")
	cmd.Flags().StringVar(&flags.layers, "layers", "", "export one mask per color into this directory")

	return cmd
}

func (c *CLI) runPalette(ctx context.Context, opts pipeline.Options, flags paletteFlags) error {
	runner, err := c.newRunner(ctx, flags.noCache, flags.url)
	if err != nil {
		return err
	}
	defer runner.Close()

	workDir, err := os.MkdirTemp("", "drawreel-palette-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create work directory")
	}
	defer os.RemoveAll(workDir)

	var spinner *Spinner
	if isTerminal(os.Stderr) {
		spinner = newSpinnerWithContext(ctx, "Analyzing "+filepath.Base(opts.Input)+"...")
		spinner.Start()
	}
	an, err := runner.Analyze(ctx, opts, workDir)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	fmt.Println(paletteTable(an).Render())
	regions, pixels := analysisTotals(an)
	printStats(0, regions, an.QuantizeHit)
	printDetail("%d colors · %d pixels drawn", len(an.Colors), pixels)

	if flags.pdf != "" {
		if err := writePaletteSheet(flags.pdf, an, filepath.Base(opts.Input)); err != nil {
			return err
		}
		printSuccess("Palette sheet written")
		printFile(flags.pdf)
	}
	if flags.layers != "" {
		paths, err := exportLayers(ctx, opts, an, flags.layers)
		if err != nil {
			return err
		}
		printSuccess("Exported %d layers", len(paths))
		for _, p := range paths {
			printFile(p)
		}
	}
	return nil
}

// paletteTable renders one row per color in drawing order.
func paletteTable(an *pipeline.Analysis) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(an.Colors))
	for _, c := range an.Colors {
		s := c.Summary()
		rows = append(rows, []string{
			swatch(c.Color.Hex()),
			c.Color.Hex(),
			fmt.Sprintf("%d", s.Count),
			fmt.Sprintf("%d", s.Pixels),
			fmt.Sprintf("%d", c.Noise),
			fmt.Sprintf("%d", s.Largest),
			fmt.Sprintf("%.1f", s.Mean),
			fmt.Sprintf("%.0f", s.Median),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Color", "Regions", "Pixels", "Noise", "Largest", "Mean", "Median").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			if col == 1 {
				return cellStyle.Foreground(colorWhite)
			}
			return cellStyle.Foreground(colorGray)
		})
}

func analysisTotals(an *pipeline.Analysis) (regions, pixels int) {
	for _, c := range an.Colors {
		s := c.Summary()
		regions += s.Count
		pixels += s.Pixels
	}
	return regions, pixels
}

// =============================================================================
// Palette Sheet (PDF)
// =============================================================================

const (
	sheetMargin   = 15.0
	sheetWidth    = 180.0 // usable A4 width in mm
	sheetBottom   = 280.0
	sheetMaxImage = 150.0 // tallest image height in mm
	swatchSize    = 10.0
	swatchSpacing = 13.0
)

// writePaletteSheet writes an A4 PDF with the quantized image followed by a
// swatch row per color.
func writePaletteSheet(path string, an *pipeline.Analysis, title string) error {
	var img bytes.Buffer
	if err := imaging.Encode(&img, an.Image, imaging.PNG); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode quantized image")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator(appName, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	b := an.Image.Bounds()
	w := sheetWidth
	h := w * float64(b.Dy()) / float64(b.Dx())
	if h > sheetMaxImage {
		w, h = w*sheetMaxImage/h, sheetMaxImage
	}
	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("quantized", opt, &img)
	pdf.ImageOptions("quantized", sheetMargin, pdf.GetY(), w, h, false, opt, 0, "")
	pdf.SetY(pdf.GetY() + h + 8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetDrawColor(120, 120, 120)
	for _, c := range an.Colors {
		if pdf.GetY()+swatchSpacing > sheetBottom {
			pdf.AddPage()
		}
		y := pdf.GetY()
		s := c.Summary()
		pdf.SetFillColor(int(c.Color.R), int(c.Color.G), int(c.Color.B))
		pdf.Rect(sheetMargin, y, swatchSize, swatchSize, "FD")
		pdf.SetXY(sheetMargin+swatchSize+4, y)
		label := fmt.Sprintf("%s   %d regions   %d pixels   %d noise", c.Color.Hex(), s.Count, s.Pixels, c.Noise)
		pdf.CellFormat(0, swatchSize, label, "", 1, "L", false, 0, "")
		pdf.SetY(y + swatchSpacing)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write palette sheet %s", path)
	}
	return nil
}

// =============================================================================
// Layers
// =============================================================================

// exportLayers writes one mask per palette color into dir, each a copy of
// the quantized image with that color cut to transparency.
func exportLayers(ctx context.Context, opts pipeline.Options, an *pipeline.Analysis, dir string) ([]string, error) {
	if err := errors.ValidateOutputDir(dir); err != nil {
		return nil, err
	}
	rt, err := tools.NewRaster(opts.Backend, opts.ToolConfig(dir))
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(an.Colors))
	for _, c := range an.Colors {
		p, err := rt.Mask(ctx, an.QuantizedPath, c.Color.Hex())
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
