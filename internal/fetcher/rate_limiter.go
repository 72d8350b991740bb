package fetcher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per host.
type RateLimiter struct {
	limit rate.Limit
	burst int
	hosts map[string]*rate.Limiter
	mu    sync.Mutex
}

// NewRateLimiter allows rpm requests per minute per host. rpm <= 0 disables limiting.
func NewRateLimiter(rpm, burst int) *RateLimiter {
	limit := rate.Inf
	if rpm > 0 {
		limit = rate.Every(time.Minute / time.Duration(rpm))
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit: limit,
		burst: burst,
		hosts: make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	rl.mu.Lock()
	limiter, exists := rl.hosts[host]
	if !exists {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.hosts[host] = limiter
	}
	rl.mu.Unlock()

	return limiter.Wait(ctx)
}
