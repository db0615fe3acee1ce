package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowCounter implements RateLimiter by allowing at most limit
// requests per fixed time window.
type FixedWindowCounter struct {
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time
	mu          sync.Mutex
}

// NewFixedWindowCounter creates a counter for the given limit and window.
func NewFixedWindowCounter(limit int, window time.Duration) *FixedWindowCounter {
	return &FixedWindowCounter{
		limit:       limit,
		window:      window,
		windowStart: time.Now(),
	}
}

// Allow resets the counter when the window has rolled over, then admits the
// request if the window's limit has not been reached.
func (f *FixedWindowCounter) Allow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	if now.After(f.windowStart.Add(f.window)) {
		f.windowStart = now
		f.count = 0
	}

	if f.count < f.limit {
		f.count++
		return true
	}
	return false
}
