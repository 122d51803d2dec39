// Package ratelimit provides a keyed token-bucket rate limiter.
// Keys are client addresses for inbound protection and catalog hosts
// for outbound politeness.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const evictAfter = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Keyed manages independent rate limiters per key.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a keyed limiter allowing rps requests per second with the
// given burst per key. Idle keys are evicted in the background; call Stop
// when done to release the eviction goroutine.
func New(rps float64, burst int) *Keyed {
	k := &Keyed{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		done:    make(chan struct{}),
	}

	go k.evictLoop()

	return k
}

// Allow reports whether a request for key may proceed right now.
// Use for inbound request protection.
func (k *Keyed) Allow(key string) bool {
	return k.get(key).Allow()
}

// Wait blocks until a request for key is allowed or ctx is canceled.
// Use for outbound calls that should respect a provider's limits.
func (k *Keyed) Wait(ctx context.Context, key string) error {
	return k.get(key).Wait(ctx)
}

func (k *Keyed) get(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.entries[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// Stop shuts down the eviction goroutine.
func (k *Keyed) Stop() {
	k.stopOnce.Do(func() {
		close(k.done)
	})
}

func (k *Keyed) evictLoop() {
	ticker := time.NewTicker(evictAfter)
	defer ticker.Stop()

	for {
		select {
		case <-k.done:
			return
		case now := <-ticker.C:
			k.mu.Lock()
			for key, e := range k.entries {
				if now.Sub(e.lastSeen) > evictAfter {
					delete(k.entries, key)
				}
			}
			k.mu.Unlock()
		}
	}
}
