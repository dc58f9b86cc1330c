// Package ratelimit provides a keyed token-bucket rate limiter, used to
// throttle credential endpoints per client address.
package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// evictAfter is how long a key may sit idle before its limiter is
// dropped. Eviction runs opportunistically when new keys are added.
const evictAfter = 10 * time.Minute

// evictThreshold is the map size at which an insert triggers an
// eviction sweep.
const evictThreshold = 1024

// KeyedRateLimiter manages per-key rate limiting.
// Each unique key gets its own independent token bucket.
type KeyedRateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
}

type client struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// New creates a new keyed rate limiter.
// rps: requests per second allowed per key.
// burst: maximum burst size (tokens available immediately).
func New(rps float64, burst int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

// Allow reports whether a request for the given key should proceed.
// Returns immediately without blocking.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.getLimiter(key).Allow()
}

// getLimiter returns the limiter for a key, creating one if needed.
func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	now := time.Now()

	// Fast path: read lock
	krl.mu.RLock()
	c, exists := krl.clients[key]
	krl.mu.RUnlock()

	if exists {
		c.lastSeen.Store(now.UnixNano())
		return c.limiter
	}

	// Slow path: write lock to create
	krl.mu.Lock()
	defer krl.mu.Unlock()

	// Double-check after acquiring write lock
	if c, exists = krl.clients[key]; exists {
		c.lastSeen.Store(now.UnixNano())
		return c.limiter
	}

	if len(krl.clients) >= evictThreshold {
		krl.evictIdle(now)
	}

	c = &client{limiter: rate.NewLimiter(krl.limit, krl.burst)}
	c.lastSeen.Store(now.UnixNano())
	krl.clients[key] = c
	return c.limiter
}

// evictIdle drops keys not seen within evictAfter. Caller holds the
// write lock.
func (krl *KeyedRateLimiter) evictIdle(now time.Time) {
	cutoff := now.Add(-evictAfter).UnixNano()
	for key, c := range krl.clients {
		if c.lastSeen.Load() < cutoff {
			delete(krl.clients, key)
		}
	}
}
