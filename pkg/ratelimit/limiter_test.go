package ratelimit

import (
	"testing"
	"time"
)

func TestIntervalAllow(t *testing.T) {
	iv := NewInterval(1.0)

	// First request is always allowed
	if !iv.Allow() {
		t.Error("Expected first request to be allowed")
	}

	// Immediate second request is denied
	if iv.Allow() {
		t.Error("Expected immediate second request to be denied")
	}

	// Reset makes the next request immediate again
	iv.Reset()
	if !iv.Allow() {
		t.Error("Expected request to be allowed after reset")
	}
}

func TestIntervalWaitEnforcesMinimumGap(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping wall-clock test in short mode")
	}

	iv := NewInterval(1.0)

	// 5 consecutive permits with near-zero processing must take at least
	// 4 full intervals.
	start := time.Now()
	for i := 0; i < 5; i++ {
		iv.Wait()
	}
	elapsed := time.Since(start)

	if elapsed < 4*time.Second {
		t.Errorf("Expected 5 permits to take at least 4s, took %v", elapsed)
	}
}

func TestIntervalWaitFastRate(t *testing.T) {
	iv := NewInterval(100.0) // 10ms interval

	start := time.Now()
	for i := 0; i < 5; i++ {
		iv.Wait()
	}
	elapsed := time.Since(start)

	if elapsed < 40*time.Millisecond {
		t.Errorf("Expected 5 permits at 100 rps to take at least 40ms, took %v", elapsed)
	}
}

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, time.Second)

	// Test initial capacity
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	// Test exhaustion
	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	// Test refill after waiting
	time.Sleep(time.Second + 100*time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected tokens to be refilled after waiting")
	}

	// Test reset
	tb.tokens = 0
	tb.Reset()
	if tb.tokens != tb.capacity {
		t.Error("Expected tokens to be reset to capacity")
	}
}
