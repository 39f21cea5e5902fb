package tools

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/drawreel/pkg/errors"
	"github.com/matzehuels/drawreel/pkg/observability"
)

// Magick implements [Raster] by running ImageMagick's convert.
type Magick struct {
	cfg Config

	// Binary is the executable, "convert" by default.
	Binary string
	// Exec runs the binary; defaults to [Exec].
	Exec ExecFunc
	// Timeout bounds each invocation when positive.
	Timeout time.Duration
	// Attempts and Delay configure retries of transient failures.
	Attempts int
	Delay    time.Duration
}

// NewMagick returns an ImageMagick backend.
func NewMagick(cfg Config) *Magick {
	return &Magick{
		cfg:      cfg,
		Binary:   "convert",
		Exec:     Exec,
		Attempts: 3,
		Delay:    time.Second,
	}
}

// ResizeArgs returns the convert arguments for [Magick.Resize].
func ResizeArgs(src, dst string, width, height int) []string {
	size := fmt.Sprintf("%dx%d", width, height)
	return []string{src, "-resize", size + "^", "-gravity", "center", "-extent", size, "+repage", dst}
}

// QuantizeArgs returns the convert arguments for [Magick.Quantize].
func QuantizeArgs(src, dst string, k, paint int) []string {
	args := []string{src, "+dither", "-colors", fmt.Sprint(k)}
	if paint > 0 {
		args = append(args, "-paint", fmt.Sprint(paint))
	}
	return append(args, dst)
}

// MaskArgs returns the convert arguments for [Magick.Mask].
func MaskArgs(src, dst, color string, tolerance int) []string {
	fuzz := fmt.Sprintf("%d%%", tolerance*100/255)
	return []string{src, "-alpha", "set", "-fuzz", fuzz, "-transparent", color, dst}
}

// Resize implements [Resizer].
func (m *Magick) Resize(ctx context.Context, src string, width, height int) (string, error) {
	if width < 1 || height < 1 {
		return "", errors.New(errors.ErrCodeInvalidInput, "canvas must be at least 1x1, got %dx%d", width, height)
	}
	dst := filepath.Join(m.cfg.WorkDir, "resized.png")
	if _, err := m.run(ctx, "resize", ResizeArgs(src, dst, width, height)...); err != nil {
		return "", err
	}
	return dst, nil
}

// Quantize implements [Quantizer].
func (m *Magick) Quantize(ctx context.Context, src string, k int) (string, error) {
	if k < 1 {
		return "", errors.New(errors.ErrCodeInvalidInput, "colors must be >= 1, got %d", k)
	}
	dst := filepath.Join(m.cfg.WorkDir, "quantized.png")
	if _, err := m.run(ctx, "quantize", QuantizeArgs(src, dst, k, m.cfg.Paint)...); err != nil {
		return "", err
	}
	return dst, nil
}

// UniqueColors implements [ColorLister].
func (m *Magick) UniqueColors(ctx context.Context, src string) ([]string, error) {
	out, err := m.run(ctx, "unique-colors", src, "-depth", "8", "-unique-colors", "txt:-")
	if err != nil {
		return nil, err
	}
	return ParseUniqueColors(out), nil
}

// Mask implements [Masker].
func (m *Magick) Mask(ctx context.Context, src, color string) (string, error) {
	dst := filepath.Join(m.cfg.WorkDir, maskName(color))
	if _, err := m.run(ctx, "mask", MaskArgs(src, dst, color, m.cfg.Tolerance)...); err != nil {
		return "", err
	}
	return dst, nil
}

func (m *Magick) run(ctx context.Context, op string, args ...string) ([]byte, error) {
	hooks := observability.Tool()
	hooks.OnToolStart(ctx, m.Binary, op)
	start := time.Now()

	var out []byte
	err := Retry(ctx, m.Attempts, m.Delay, func() error {
		callCtx, cancel := withTimeout(ctx, m.Timeout)
		defer cancel()
		var err error
		out, err = m.Exec(callCtx, m.Binary, args...)
		return err
	})
	hooks.OnToolComplete(ctx, m.Binary, op, time.Since(start), err)
	return out, err
}

var hexColor = regexp.MustCompile(`#([0-9A-Fa-f]{6})(?:[0-9A-Fa-f]{2})?\b`)

// ParseUniqueColors extracts the colors from ImageMagick's txt: output,
// one pixel per line such as "0,0: (255,255,255)  #FFFFFF  white".
// The result is lowercase, deduplicated and sorted.
func ParseUniqueColors(txt []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(txt))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			continue // header: "# ImageMagick pixel enumeration: ..."
		}
		if m := hexColor.FindStringSubmatch(line); m != nil {
			out = append(out, "#"+strings.ToLower(m[1]))
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
