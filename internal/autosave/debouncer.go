// Package autosave coalesces buffer mutations into a single persisted write
// after a quiet period.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultQuietPeriod = 1000 * time.Millisecond
	DefaultSaveTimeout = 10 * time.Second
)

// Timer is a pending callback
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is backed by time.AfterFunc
var RealClock Clock = realClock{}

// ReadFunc returns the payload to save. It is called when the timer fires,
// not when Trigger is called.
type ReadFunc func() string

// SaveFunc persists a payload
type SaveFunc func(ctx context.Context, payload string) error

// Config configures a Debouncer
type Config struct {
	QuietPeriod time.Duration
	SaveTimeout time.Duration
	Clock       Clock
	Logger      zerolog.Logger
}

// Debouncer schedules one save per burst of triggers
type Debouncer struct {
	read    ReadFunc
	save    SaveFunc
	quiet   time.Duration
	timeout time.Duration
	clock   Clock
	logger  zerolog.Logger

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	stopped bool
}

// New creates a debouncer that reads its payload with read and writes it with save
func New(cfg Config, read ReadFunc, save SaveFunc) *Debouncer {
	if cfg.QuietPeriod <= 0 {
		cfg.QuietPeriod = DefaultQuietPeriod
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = DefaultSaveTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock
	}

	return &Debouncer{
		read:    read,
		save:    save,
		quiet:   cfg.QuietPeriod,
		timeout: cfg.SaveTimeout,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
	}
}

// Trigger cancels any pending save and schedules a new one a quiet period
// from now. Triggers after Stop are ignored.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.quiet, func() { d.fire(gen) })
}

// Pending reports whether a save is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop drops any pending save without flushing it
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A timer that lost the race with Trigger or Stop is stale
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	payload := d.read()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.save(ctx, payload); err != nil {
		d.logger.Error().Err(err).Msg("autosave failed")
		return
	}
	d.logger.Debug().Int("bytes", len(payload)).Msg("autosaved")
}
