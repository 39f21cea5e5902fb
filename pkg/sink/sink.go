// Package sink persists composited frames.
//
// Frames are numbered by the sink at emission time: the first frame written
// gets index 0 and every further frame exactly one more, so the files on disk
// always form a gap-free sequence.
package sink

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/matzehuels/drawreel/pkg/errors"
	"github.com/matzehuels/drawreel/pkg/raster"
)

// Pattern is the printf pattern of frame file names, as understood by ffmpeg.
const Pattern = "out-%d.png"

// FrameSink receives frames in emission order.
type FrameSink interface {
	// WriteFrame stores img and returns the index it was assigned.
	WriteFrame(ctx context.Context, img image.Image) (int, error)
	// Frames reports how many frames were written so far.
	Frames() int
}

// Dir writes frames as out-<index>.png files into a directory.
type Dir struct {
	path string

	mu   sync.Mutex
	next int
}

// NewDir returns a sink writing into dir. The directory must exist.
func NewDir(dir string) *Dir {
	return &Dir{path: dir}
}

// Path returns the output directory.
func (d *Dir) Path() string { return d.path }

// Pattern returns the full printf pattern of the frame files.
func (d *Dir) Pattern() string { return filepath.Join(d.path, Pattern) }

// FramePath returns the file name of frame i.
func (d *Dir) FramePath(i int) string {
	return filepath.Join(d.path, fmt.Sprintf(Pattern, i))
}

// RemoveStale deletes frame files left in the directory by an earlier run,
// so the encoder never reads past the frames written by this sink. Only
// names of the form out-<n>.png are touched. It returns the number removed.
func (d *Dir) RemoveStale() (int, error) {
	matches, err := filepath.Glob(filepath.Join(d.path, "out-*.png"))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "list frames in %s", d.path)
	}
	removed := 0
	for _, m := range matches {
		if !isFrameName(filepath.Base(m)) {
			continue
		}
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return removed, errors.Wrap(errors.ErrCodeInvalidPath, err, "remove stale frame %s", m)
		}
		removed++
	}
	return removed, nil
}

func isFrameName(name string) bool {
	n, ok := strings.CutPrefix(name, "out-")
	if !ok {
		return false
	}
	n, ok = strings.CutSuffix(n, ".png")
	if !ok || n == "" {
		return false
	}
	_, err := strconv.ParseUint(n, 10, 64)
	return err == nil
}

// WriteFrame implements [FrameSink]. A failed write does not consume an
// index.
func (d *Dir) WriteFrame(ctx context.Context, img image.Image) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeCancelled, err, "frame not written")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.next
	if err := raster.Save(d.FramePath(i), img); err != nil {
		return 0, err
	}
	d.next++
	return i, nil
}

// Frames implements [FrameSink].
func (d *Dir) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next
}

// Memory keeps frames in memory. It is used for previews and tests.
type Memory struct {
	mu     sync.Mutex
	Images []image.Image
}

// WriteFrame implements [FrameSink].
func (m *Memory) WriteFrame(ctx context.Context, img image.Image) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeCancelled, err, "frame not written")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Images = append(m.Images, img)
	return len(m.Images) - 1, nil
}

// Frames implements [FrameSink].
func (m *Memory) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Images)
}

// Observed wraps a sink and calls fn after every written frame.
type Observed struct {
	FrameSink
	OnFrame func(index int)
}

// WriteFrame implements [FrameSink].
func (o Observed) WriteFrame(ctx context.Context, img image.Image) (int, error) {
	i, err := o.FrameSink.WriteFrame(ctx, img)
	if err == nil && o.OnFrame != nil {
		o.OnFrame(i)
	}
	return i, err
}
