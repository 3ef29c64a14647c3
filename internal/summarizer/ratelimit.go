// File: internal/summarizer/ratelimit.go
package summarizer

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultMinInterval is the minimum spacing between outbound provider calls
// issued by one Summarizer instance.
const defaultMinInterval = 100 * time.Millisecond

// RateLimiter enforces a minimum interval between outbound provider calls.
// The pacing itself is delegated to a x/time rate.Limiter (burst 1), which is
// safe under concurrent callers; the mutex guards the observability
// bookkeeping so LastRequest and RequestCount stay consistent with each other.
type RateLimiter struct {
	limiter *rate.Limiter

	mu           sync.Mutex
	lastRequest  time.Time
	requestCount uint64
}

// NewRateLimiter creates a limiter with the given minimum spacing. A
// non-positive interval disables pacing (used in tests).
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	lim := rate.NewLimiter(rate.Inf, 1)
	if minInterval > 0 {
		lim = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return &RateLimiter{limiter: lim}
}

// Enforce blocks until the minimum interval since the previous permitted call
// has elapsed, then records the new request. Returns early only if the context
// is cancelled while waiting.
func (l *RateLimiter) Enforce(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	l.lastRequest = time.Now()
	l.requestCount++
	l.mu.Unlock()
	return nil
}

// LastRequest returns the instant the most recent call was permitted.
func (l *RateLimiter) LastRequest() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastRequest
}

// RequestCount returns the number of calls permitted over the limiter's
// lifetime. Monotonic; observability only.
func (l *RateLimiter) RequestCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requestCount
}
