package reconcile

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay is the pause before every remote request.
const DefaultDelay = 5 * time.Second

// Throttle blocks until the next remote request may be sent.
// *rate.Limiter satisfies it.
type Throttle interface {
	Wait(ctx context.Context) error
}

// NewThrottle returns a limiter that admits one request per delay.
// The single burst token is spent immediately, so the first request waits
// a full delay like every later one. A delay <= 0 disables throttling.
func NewThrottle(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	l := rate.NewLimiter(rate.Every(delay), 1)
	l.Allow()
	return l
}
