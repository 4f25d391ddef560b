package ratelimit

import (
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request
	Wait()
	// Reset resets the rate limiter state
	Reset()
}

// Interval enforces a minimum interval between permitted requests. A single
// instance is shared by every outbound call in the process: API pagination,
// page scrapes and image downloads all draw from the same budget.
type Interval struct {
	interval time.Duration
	last     time.Time
	mu       sync.Mutex
}

// NewInterval creates an interval limiter allowing requestsPerSecond permits.
func NewInterval(requestsPerSecond float64) *Interval {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1.0
	}
	return &Interval{
		interval: time.Duration(float64(time.Second) / requestsPerSecond),
	}
}

// Allow reports whether the minimum interval has elapsed, and if so stamps
// the current time as the new last-permitted timestamp.
func (iv *Interval) Allow() bool {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	now := time.Now()
	if now.Sub(iv.last) < iv.interval {
		return false
	}
	iv.last = now
	return true
}

// Wait blocks the caller until the minimum interval since the previous
// permitted request has elapsed, then records the permit.
func (iv *Interval) Wait() {
	iv.mu.Lock()
	wait := iv.interval - time.Since(iv.last)
	iv.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}

	iv.mu.Lock()
	iv.last = time.Now()
	iv.mu.Unlock()
}

// Reset clears the last-permitted timestamp so the next request is immediate.
func (iv *Interval) Reset() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.last = time.Time{}
}

// TokenBucket implements a token bucket rate limiter. Used instead of
// Interval when a burst size is configured.
type TokenBucket struct {
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		timeUntilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if timeUntilRefill > 0 {
			time.Sleep(timeUntilRefill)
		} else {
			// Small sleep to prevent busy waiting
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// refill adds tokens based on elapsed time
func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}
