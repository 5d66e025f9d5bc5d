// Package retry implements bounded exponential backoff for ledger reads.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// Config defines retry behavior.
type Config struct {
	Attempts   int
	MinDelay   time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultConfig returns the settings used for JSON-RPC reads: a few quick
// attempts, so a flaky node is absorbed but a dead one surfaces within the
// same block iteration.
func DefaultConfig() Config {
	return Config{
		Attempts:   3,
		MinDelay:   250 * time.Millisecond,
		MaxDelay:   4 * time.Second,
		Multiplier: 2.0,
	}
}

// Do executes fn with exponential backoff and jitter until it succeeds, the
// attempts are exhausted, or ctx is cancelled.
func Do(ctx context.Context, cfg Config, log *logrus.Entry, operation string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled: %w", operation, ctx.Err())
		default:
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.Attempts {
			break
		}

		delay := backoff(cfg, attempt)
		log.WithFields(logrus.Fields{
			"operation": operation,
			"attempt":   attempt,
			"retry_in":  delay,
		}).WithError(lastErr).Warn("ledger read failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled: %w", operation, ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, cfg.Attempts, lastErr)
}

func backoff(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.MinDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	// up to 25% jitter so concurrent keepers don't hammer the node in step
	delay += delay * 0.25 * rand.Float64()
	return time.Duration(delay)
}
