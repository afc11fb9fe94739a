// Package ratelimit paces outbound API requests with a shared minimum interval.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter serializes acquisitions so that at least the configured minimum
// interval elapses between the start of consecutive requests, no matter how
// many workers share the instance. It never fails, it only delays; the one
// error path is context cancellation.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter with the given minimum interval between acquisitions.
// A zero or negative interval disables pacing.
func New(minInterval time.Duration) *Limiter {
	r := rate.Inf
	if minInterval > 0 {
		r = rate.Every(minInterval)
	}
	// Burst 1: concurrent callers queue one at a time instead of all
	// passing through after a single wait.
	return &Limiter{limiter: rate.NewLimiter(r, 1)}
}

// Acquire blocks until the caller may issue the next request.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
