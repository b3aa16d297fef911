package publix

import (
	"context"
	"log/slog"
	"time"
)

// withRetry runs fn, backing off and retrying network failures until
// the attempt budget runs out. parse failures and unexpected statuses
// pass through on the first occurrence.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	delay := c.cfg.RetryInitialDelay
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !Retryable(err) {
			return err
		}
		if attempt >= c.cfg.MaxRetries {
			return err
		}

		slog.WarnContext(
			ctx, "retrying after network failure",
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"delay", delay,
			"err", err,
		)
		err = sleepContext(ctx, delay)
		if err != nil {
			return err
		}

		delay = time.Duration(float64(delay) * c.cfg.RetryBackoffFactor)
		if delay > c.cfg.RetryMaxDelay {
			delay = c.cfg.RetryMaxDelay
		}
	}
}
