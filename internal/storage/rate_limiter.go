package storage

import (
	"context"
	"sync"
	"time"
)

type RateLimiter struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{interval: time.Second / time.Duration(requestsPerSecond)}
}

// Wait reserves the next request slot and sleeps until it opens or ctx ends.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	now := time.Now()
	scheduled := now
	if r.nextAllowedAt.After(now) {
		scheduled = r.nextAllowedAt
	}
	r.nextAllowedAt = scheduled.Add(r.interval)
	r.mu.Unlock()

	sleep := time.Until(scheduled)
	if sleep <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
