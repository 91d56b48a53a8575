package platform

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter serializes outbound dispatches so that no two requests leave
// closer together than the minimum interval derived from the configured
// requests-per-minute ceiling. Safe for concurrent callers.
type RateLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	interval := time.Minute / time.Duration(requestsPerMinute)
	return &RateLimiter{
		// Burst of 1 keeps every dispatch a full interval apart instead of
		// allowing an initial burst to bunch up.
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Wait blocks until a pacing slot is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Interval returns the minimum spacing between dispatches.
func (r *RateLimiter) Interval() time.Duration {
	return r.interval
}
