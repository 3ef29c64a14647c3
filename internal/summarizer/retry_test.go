package summarizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cadence-health/carebrief/api/schemas"
)

// newTestEngine builds a retry engine with pacing disabled and a recording
// sleep, so delay assertions run without a real clock.
func newTestEngine(t *testing.T, cfg RetryConfig) (*retryEngine, *[]time.Duration) {
	t.Helper()
	engine := newRetryEngine(cfg, NewRateLimiter(0), zap.NewNop())

	var delays []time.Duration
	engine.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return engine, &delays
}

// Two retryable failures followed by a success: exactly three invocations,
// with inter-attempt delays of baseDelay and baseDelay × multiplier.
func TestRetryEngine_RetriesThenSucceeds(t *testing.T) {
	engine, delays := newTestEngine(t, DefaultRetryConfig())

	calls := 0
	out, err := engine.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &schemas.ProviderError{Type: schemas.APIErrorOverloaded, Message: "busy"}
		}
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
}

// A non-retryable failure on the first attempt stops the loop immediately and
// rethrows the original error unmodified.
func TestRetryEngine_NonRetryableStopsImmediately(t *testing.T) {
	engine, delays := newTestEngine(t, DefaultRetryConfig())

	original := &schemas.ProviderError{Type: schemas.APIErrorAuthentication, Message: "bad key"}
	calls := 0
	_, err := engine.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", original
	})

	require.Error(t, err)
	assert.Same(t, original, err.(*schemas.ProviderError))
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

// Exhausting the attempt budget propagates the original error from the last
// attempt, not its classification.
func TestRetryEngine_ExhaustsAttempts(t *testing.T) {
	engine, delays := newTestEngine(t, DefaultRetryConfig())

	original := &schemas.TransportError{Message: "connection reset"}
	calls := 0
	_, err := engine.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", original
	})

	require.Error(t, err)
	assert.Same(t, original, err.(*schemas.TransportError))
	assert.Equal(t, 3, calls)
	assert.Len(t, *delays, 2)
}

// Delays grow geometrically but never past maxDelay.
func TestRetryEngine_DelayCappedAtMax(t *testing.T) {
	engine, delays := newTestEngine(t, RetryConfig{
		MaxRetries:        5,
		BaseDelay:         time.Second,
		MaxDelay:          3 * time.Second,
		BackoffMultiplier: 2,
	})

	_, err := engine.Do(context.Background(), func(ctx context.Context) (string, error) {
		return "", &schemas.TransportError{Message: "flaky"}
	})

	require.Error(t, err)
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second,
	}, *delays)
}

// Partial retry configs take defaults for unset fields.
func TestRetryConfig_Merged(t *testing.T) {
	merged := RetryConfig{MaxRetries: 5}.merged()
	assert.Equal(t, 5, merged.MaxRetries)
	assert.Equal(t, time.Second, merged.BaseDelay)
	assert.Equal(t, 10*time.Second, merged.MaxDelay)
	assert.Equal(t, float64(2), merged.BackoffMultiplier)
}

// The engine enforces the rate limiter at the start of every attempt,
// including retries.
func TestRetryEngine_EnforcesLimiterPerAttempt(t *testing.T) {
	limiter := NewRateLimiter(0)
	engine := newRetryEngine(DefaultRetryConfig(), limiter, zap.NewNop())
	engine.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	calls := 0
	_, err := engine.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", &schemas.TransportError{Message: "hiccup"}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, uint64(2), limiter.RequestCount())
}

// Cancellation while sleeping between attempts aborts the loop.
func TestRetryEngine_CancelledDuringBackoff(t *testing.T) {
	engine := newRetryEngine(DefaultRetryConfig(), NewRateLimiter(0), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := engine.Do(ctx, func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", &schemas.TransportError{Message: "flaky"}
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}
