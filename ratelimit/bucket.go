// Package ratelimit provides per-client, multi-window admission control built
// on lazily refilled token buckets.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a single counter-based rate primitive. Tokens accrue lazily:
// each Consume call first credits elapsed/refillInterval tokens (capped at
// capacity) and then attempts the debit. All state is guarded by a mutex so a
// bucket is safe for concurrent use.
type TokenBucket struct {
	mu             sync.Mutex
	capacity       float64
	tokens         float64
	refillInterval time.Duration // time to accrue one token
	lastChecked    time.Time

	now func() time.Time
}

// NewTokenBucket creates a bucket starting at full capacity. refillInterval is
// the time taken to accrue a single token.
func NewTokenBucket(capacity float64, refillInterval time.Duration) *TokenBucket {
	now := time.Now
	return &TokenBucket{
		capacity:       capacity,
		tokens:         capacity,
		refillInterval: refillInterval,
		lastChecked:    now(),
		now:            now,
	}
}

// Consume refills the bucket for the elapsed time, then attempts to debit
// cost tokens. It returns true and debits when enough tokens are available;
// otherwise it returns false with no debit. The refill is applied either way.
func (b *TokenBucket) Consume(cost float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	elapsed := now.Sub(b.lastChecked)
	b.tokens += elapsed.Seconds() / b.refillInterval.Seconds()
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastChecked = now

	if b.tokens >= cost {
		b.tokens -= cost
		return true
	}
	return false
}

// Tokens returns the current token count without refilling.
func (b *TokenBucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}
