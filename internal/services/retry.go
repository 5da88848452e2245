package services

import (
	"context"
	"errors"
	"time"

	"github.com/GregMSThompson/budget-sync/internal/errs"
	"github.com/GregMSThompson/budget-sync/pkg/logger"
)

// WithRateLimitRetry runs fn, retrying once per cool-down whenever the
// backend answers with a rate limit. There is no attempt cap: the backend's
// own RetryAfter paces us. Any other error returns immediately.
func WithRateLimitRetry(ctx context.Context, fn func() error) error {
	log := logger.FromContext(ctx)

	for {
		err := fn()

		var rl *errs.RateLimitedError
		if !errors.As(err, &rl) {
			return err
		}

		log.Warn("backend rate limited, waiting", "retry_after", rl.RetryAfter)
		select {
		case <-time.After(rl.RetryAfter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
