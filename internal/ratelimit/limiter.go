// Package ratelimit enforces per-IP request windows, IP blocks and the
// per-user assistant throttle.
package ratelimit

import (
	"context"
	"time"

	"github.com/shivavenkatesh/webforge/internal/store"
)

const (
	DefaultWindow   = time.Minute
	DefaultRequests = 10
)

// Config configures the fixed-window limiter
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// Decision is the outcome of one check
type Decision struct {
	Allowed   bool
	Blocked   bool // the IP has an active block
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the client should wait, rounded up to a second
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return (wait + time.Second - 1).Truncate(time.Second)
}

// Limiter counts requests per IP in fixed windows held by the store
type Limiter struct {
	store store.RateLimitStore
	cfg   Config
	now   func() time.Time
}

// New creates a limiter backed by rs
func New(rs store.RateLimitStore, cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultRequests
	}
	return &Limiter{store: rs, cfg: cfg, now: time.Now}
}

// Check records one request from ip and reports whether it may proceed.
// A blocked IP is rejected without being counted.
func (l *Limiter) Check(ctx context.Context, ip string) (Decision, error) {
	now := l.now()
	d := Decision{Limit: l.cfg.MaxRequests}

	blocked, err := l.store.IsBlocked(ctx, ip, now)
	if err != nil {
		return d, err
	}
	if blocked {
		d.Blocked = true
		return d, nil
	}

	count, resetAt, err := l.store.HitWindow(ctx, ip, l.cfg.Window, now)
	if err != nil {
		return d, err
	}

	d.ResetAt = resetAt
	d.Allowed = count <= l.cfg.MaxRequests
	d.Remaining = l.cfg.MaxRequests - count
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	return d, nil
}
