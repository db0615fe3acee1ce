package ratelimiter

// RateLimiter is the interface for rate limiting.
// Allow returns true if a request may proceed, and false otherwise.
type RateLimiter interface {
	Allow() bool
}
