package tools

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/matzehuels/drawreel/pkg/errors"
	"github.com/matzehuels/drawreel/pkg/observability"
)

// DefaultFPS is the frame rate of the assembled video.
const DefaultFPS = 25

// EncodeRequest describes one video assembly.
type EncodeRequest struct {
	Pattern string // printf pattern of the frame files, e.g. "out/out-%d.png"
	Frames  int    // number of frames to read; 0 reads until the first gap
	FPS     int
	Audio   string // optional soundtrack
	Output  string // video path
}

// Encoder assembles frames into a video.
type Encoder interface {
	Encode(ctx context.Context, req EncodeRequest) (string, error)
}

// FFmpeg implements [Encoder] with the ffmpeg command line tool.
type FFmpeg struct {
	Binary  string
	Exec    ExecFunc
	Timeout time.Duration
}

// NewFFmpeg returns an encoder running "ffmpeg" from PATH.
func NewFFmpeg() *FFmpeg {
	return &FFmpeg{Binary: "ffmpeg", Exec: Exec}
}

// EncodeArgs returns the ffmpeg arguments for req.
func EncodeArgs(req EncodeRequest) []string {
	fps := req.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	rate := fmt.Sprint(fps)
	args := []string{"-y", "-framerate", rate, "-i", req.Pattern}
	if req.Audio != "" {
		args = append(args, "-i", req.Audio, "-shortest")
	}
	args = append(args,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-vf", "fps="+rate,
	)
	if req.Frames > 0 {
		args = append(args, "-frames:v", strconv.Itoa(req.Frames))
	}
	return append(args, req.Output)
}

// Encode implements [Encoder].
func (f *FFmpeg) Encode(ctx context.Context, req EncodeRequest) (string, error) {
	if req.Pattern == "" || req.Output == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "encode needs a frame pattern and an output path")
	}
	callCtx, cancel := withTimeout(ctx, f.Timeout)
	defer cancel()

	hooks := observability.Tool()
	hooks.OnToolStart(ctx, f.Binary, "encode")
	start := time.Now()
	_, err := f.Exec(callCtx, f.Binary, EncodeArgs(req)...)
	hooks.OnToolComplete(ctx, f.Binary, "encode", time.Since(start), err)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(req.Output); err != nil {
		return "", errors.Wrap(errors.ErrCodeEncodeFailed, err, "%s reported success but wrote no video", f.Binary)
	}
	return req.Output, nil
}
