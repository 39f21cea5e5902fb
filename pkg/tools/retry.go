package tools

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/matzehuels/drawreel/pkg/errors"
)

// RetryableError marks a transient tool failure, such as ImageMagick running
// into a resource limit, so that [Retry] attempts the call again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. The delay doubles after each failed attempt.
// Returns the last error if all attempts fail. A context that ends during
// backoff yields TOOL_FAILED on deadline and CANCELLED otherwise, the same
// codes [Exec] uses.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return backoffError(ctx.Err(), lastErr)
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

func backoffError(ctxErr, lastErr error) error {
	if stderrors.Is(ctxErr, context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeToolFailed, ctxErr, "timed out while retrying: %v", lastErr)
	}
	return errors.Wrap(errors.ErrCodeCancelled, ctxErr, "interrupted while retrying: %v", lastErr)
}

func isRetryable(err error) bool {
	return stderrors.As(err, new(*RetryableError))
}
