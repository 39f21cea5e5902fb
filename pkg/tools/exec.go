package tools

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/matzehuels/drawreel/pkg/errors"
)

// ExecFunc runs an external program and returns its standard output.
// It is the seam used to fake subprocesses in tests.
type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Exec runs name with args, capturing stdout and stderr. Failures are
// reported as *errors.Error wrapping an *errors.ToolError carrying the exit
// status and stderr. Exits caused by a signal or by ImageMagick resource
// limits are additionally marked retryable.
func Exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolNotFound, err, "%s not found in PATH (%s)", name, installHint(name))
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	err := cmd.Run()
	if err == nil {
		return out.Bytes(), nil
	}
	switch ctxErr := ctx.Err(); {
	case stderrors.Is(ctxErr, context.DeadlineExceeded):
		return nil, errors.Wrap(errors.ErrCodeToolFailed, ctxErr, "%s timed out", name)
	case ctxErr != nil:
		return nil, errors.Wrap(errors.ErrCodeCancelled, ctxErr, "%s interrupted", name)
	}

	toolErr := &errors.ToolError{Tool: name, ExitCode: -1, Stderr: strings.TrimSpace(errBuf.String())}
	retryable := false
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			retryable = true
		}
	}
	if strings.Contains(strings.ToLower(toolErr.Stderr), "resource limit") {
		retryable = true
	}

	wrapped := errors.Wrap(errors.ErrCodeToolFailed, toolErr, "%s failed", name)
	if retryable {
		return nil, &RetryableError{Err: wrapped}
	}
	return nil, wrapped
}

// withTimeout bounds a single tool call when timeout is positive.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func installHint(name string) string {
	switch name {
	case "ffmpeg":
		return "install with: brew install ffmpeg (macOS), apt install ffmpeg (Linux)"
	case "convert", "magick":
		return "install with: brew install imagemagick (macOS), apt install imagemagick (Linux)"
	default:
		return "install it and make sure it is on PATH"
	}
}
