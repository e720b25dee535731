// Package ratelimit implements the process-wide shared limiters gating
// rate-limited nodes: token buckets with lazy refill and sliding windows
// with timestamp pruning. Limiter state is shared across all executions and
// lives until explicitly cleared through the Store.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a classic token bucket. The level is recomputed lazily from
// elapsed time on each access; there is no background refill timer.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64 // tokens per second
	level      float64
	lastRefill time.Time
}

// NewTokenBucket returns a full bucket. Capacity and rate below zero are
// clamped to zero; a zero-rate bucket never refills.
func NewTokenBucket(capacity, refillRate float64) *TokenBucket {
	if capacity < 0 {
		capacity = 0
	}
	if refillRate < 0 {
		refillRate = 0
	}
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		level:      capacity,
		lastRefill: time.Now(),
	}
}

// refill brings the level up to date. Caller must hold mu.
func (b *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.level += elapsed * b.refillRate
	if b.level > b.capacity {
		b.level = b.capacity
	}
	b.lastRefill = now
}

// TryTake removes cost tokens if available and reports whether it did.
// The level stays within [0, capacity] at all times.
func (b *TokenBucket) TryTake(cost float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	if b.level < cost {
		return false
	}
	b.level -= cost
	return true
}

// WaitTime returns how long the caller must wait before cost tokens will be
// available, assuming no other consumers. Zero means the tokens are
// available now; a negative duration means they never will be (cost exceeds
// capacity or the bucket does not refill).
func (b *TokenBucket) WaitTime(cost float64) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	if b.level >= cost {
		return 0
	}
	if cost > b.capacity || b.refillRate <= 0 {
		return -1
	}
	missing := cost - b.level
	return time.Duration(missing / b.refillRate * float64(time.Second))
}

// Available returns the current token level.
func (b *TokenBucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	return b.level
}

// Capacity returns the configured capacity.
func (b *TokenBucket) Capacity() float64 { return b.capacity }
