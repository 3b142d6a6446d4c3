package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle keeps one token bucket per key
type Throttle struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*throttleEntry
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewThrottle allows perMinute events per key with the given burst. Buckets
// unused for idle are dropped by Sweep.
func NewThrottle(perMinute float64, burst int, idle time.Duration) *Throttle {
	if burst < 1 {
		burst = 1
	}
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Throttle{
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
		idle:     idle,
		now:      time.Now,
		limiters: make(map[string]*throttleEntry),
	}
}

// Allow reports whether key may perform one more event now
func (t *Throttle) Allow(key string) bool {
	now := t.now()
	return t.get(key, now).AllowN(now, 1)
}

func (t *Throttle) get(key string, now time.Time) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.limiters[key]
	if !ok {
		e = &throttleEntry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Sweep drops buckets unused for longer than the idle period and returns how
// many were removed
func (t *Throttle) Sweep() int {
	cutoff := t.now().Add(-t.idle)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, e := range t.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(t.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}

// Run sweeps every interval until ctx is done
func (t *Throttle) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}
