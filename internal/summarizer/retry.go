// File: internal/summarizer/retry.go
package summarizer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryConfig bounds the attempt loop. Set once at Summarizer construction;
// immutable thereafter and safe to share.
type RetryConfig struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the stock schedule: up to 3 attempts with delays
// of 1s and 2s between them, capped at 10s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2,
	}
}

// merged fills zero-valued fields from the defaults, so callers can override
// a subset of the schedule.
func (c RetryConfig) merged() RetryConfig {
	def := DefaultRetryConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = def.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = def.MaxDelay
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = def.BackoffMultiplier
	}
	return c
}

// retryEngine drives the attempt loop for one provider call. Attempts are
// strictly sequential; the rate limiter is enforced at the start of every
// attempt, including retries. The loop is iterative and bounded by
// MaxRetries total attempts.
type retryEngine struct {
	cfg     RetryConfig
	limiter *RateLimiter
	logger  *zap.Logger
	// sleep is injectable so tests can observe delays with a controlled clock.
	sleep func(ctx context.Context, d time.Duration) error
}

func newRetryEngine(cfg RetryConfig, limiter *RateLimiter, logger *zap.Logger) *retryEngine {
	return &retryEngine{
		cfg:     cfg.merged(),
		limiter: limiter,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// newDelaySchedule builds the deterministic backoff sequence
// baseDelay × multiplier^(n-1), capped at maxDelay. Randomization is disabled
// so inter-attempt delays are exactly reproducible.
func (e *retryEngine) newDelaySchedule() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.cfg.BaseDelay
	b.Multiplier = e.cfg.BackoffMultiplier
	b.MaxInterval = e.cfg.MaxDelay
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0 // bounded by attempt count, not wall clock
	b.Reset()
	return b
}

// Do runs op until it succeeds, fails with a non-retryable classification, or
// the attempt budget is spent. On terminal failure the ORIGINAL error from the
// last attempt propagates, not its classification.
func (e *retryEngine) Do(ctx context.Context, op func(ctx context.Context) (string, error)) (string, error) {
	schedule := e.newDelaySchedule()

	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		if err := e.limiter.Enforce(ctx); err != nil {
			return "", err
		}

		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		info := Classify(err)
		if !info.Retryable || attempt == e.cfg.MaxRetries {
			e.logger.Warn("Attempt failed terminally",
				zap.Int("attempt", attempt),
				zap.String("kind", string(info.Kind)),
				zap.Bool("retryable", info.Retryable),
				zap.Error(err),
			)
			return "", err
		}

		delay := schedule.NextBackOff()
		e.logger.Warn("Attempt failed, backing off",
			zap.Int("attempt", attempt),
			zap.String("kind", string(info.Kind)),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := e.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

// sleepContext pauses for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
