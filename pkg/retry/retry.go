package retry

import (
	"context"
	"fmt"
	"time"
)

// Config controls retry behaviour.
type Config struct {
	// MaxAttempts is the total number of calls including the first attempt.
	MaxAttempts int
	// BaseDelay is the wait after the first failure; it doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps the wait between attempts. Zero means uncapped.
	MaxDelay time.Duration
	// OnRetry is called after a failed attempt and before the next delay.
	// attempt is 1-indexed (1 = first attempt just failed).
	OnRetry func(attempt int, err error)
}

// Do calls fn up to cfg.MaxAttempts times with doubling backoff.
//
// Wait schedule with BaseDelay=1s: 1s, 2s, 4s, 8s, ... capped at MaxDelay.
//
// Returns nil on first success, or the last error after all attempts.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	delay := cfg.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		// Last attempt: no delay, just return the error.
		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr)
		}

		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled after attempt %d: %w", attempt, ctx.Err())
		}
		delay *= 2
	}
	return lastErr
}
