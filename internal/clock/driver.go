package clock

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Driver repeatedly ticks a Clock from wall time. The clock itself
// never sleeps or blocks; cadence lives here. The driver keeps looping
// while the clock is paused (ticks are no-ops then) so a resume takes
// effect on the next interval.
type Driver struct {
	Clock    *Clock
	Interval time.Duration  // base tick cadence (default 100ms)
	OnTick   func(Snapshot) // invoked after every completed tick

	// Stop is typically called from a signal goroutine while Run is
	// looping, so the flag is atomic.
	running atomic.Bool
}

// NewDriver creates a driver with the default cadence.
func NewDriver(c *Clock) *Driver {
	return &Driver{
		Clock:    c,
		Interval: 100 * time.Millisecond,
	}
}

// Run drives the clock until Stop is called. Blocks.
func (d *Driver) Run() {
	d.running.Store(true)
	slog.Info("simulation driver started", "interval", d.Interval)

	last := time.Now()
	for d.running.Load() {
		start := time.Now()
		delta := start.Sub(last).Seconds()
		last = start

		snap := d.Clock.Tick(delta)
		if d.OnTick != nil {
			d.OnTick(snap)
		}

		// Sleep out the remainder of the interval.
		if elapsed := time.Since(start); elapsed < d.Interval {
			time.Sleep(d.Interval - elapsed)
		}
	}

	slog.Info("simulation driver stopped", "ticks", d.Clock.State().State.Ticks)
}

// Stop halts the drive loop after the current iteration. Safe to call
// from any goroutine.
func (d *Driver) Stop() {
	d.running.Store(false)
}
