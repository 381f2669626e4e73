// Package clock owns the simulation's mutable state: elapsed simulated
// time, the speed multiplier, the run status, and the bounded sample
// history. Each tick derives height from elapsed time, runs the
// atmosphere, physiology, and survival models in sequence, and appends
// one record. The first fatal verdict latches: progression freezes and
// the evaluator is never consulted again for that run.
package clock

import (
	"errors"
	"fmt"
	"sync"

	"github.com/talgya/ascent/internal/survival"
)

const (
	// AscentRate is the fixed climb rate: 1 foot per simulated second.
	AscentRate = 0.3048 // m/s

	MinSpeed     = 50.0
	MaxSpeed     = 150.0
	DefaultSpeed = 100.0

	// DefaultHistoryCap bounds the sample history; the oldest record is
	// evicted first.
	DefaultHistoryCap = 1000
)

var (
	// ErrInvalidState is returned by Start when the clock is already
	// running or the run has terminated.
	ErrInvalidState = errors.New("invalid clock state")

	// ErrOutOfRange is returned by SetSpeed for multipliers outside
	// [MinSpeed, MaxSpeed].
	ErrOutOfRange = errors.New("value out of range")
)

// State is the control-state portion of a snapshot.
type State struct {
	ElapsedS   float64 `json:"elapsed_s"`
	HeightM    float64 `json:"height_m"`
	Speed      float64 `json:"speed_multiplier"`
	Running    bool    `json:"running"`
	Terminated bool    `json:"terminated"`
	Ticks      uint64  `json:"ticks"`
}

// Snapshot is an immutable view of the most recently completed tick.
type Snapshot struct {
	State   State            `json:"state"`
	Latest  Record           `json:"latest"`
	Verdict survival.Verdict `json:"verdict"`
}

// Clock drives the ascent. One logical tick advances all derived state
// atomically; readers only ever see completed ticks.
type Clock struct {
	mu         sync.Mutex
	elapsedS   float64
	speed      float64
	running    bool
	terminated bool
	ticks      uint64
	latest     Record
	verdict    survival.Verdict

	// Sample history as a ring: buf[start] is the oldest of count.
	buf   []Record
	start int
	count int
}

// New creates a stopped clock with the default speed multiplier. A
// historyCap of zero or less selects DefaultHistoryCap.
func New(historyCap int) *Clock {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &Clock{
		speed:   DefaultSpeed,
		verdict: survival.Alive(),
		buf:     make([]Record, historyCap),
	}
}

// Start begins (or resumes) advancing simulated time. It fails if the
// clock is already running or the run has ended.
func (c *Clock) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminated {
		return fmt.Errorf("%w: run has terminated", ErrInvalidState)
	}
	if c.running {
		return fmt.Errorf("%w: already running", ErrInvalidState)
	}
	c.running = true
	return nil
}

// Pause stops advancing elapsed time without clearing it. Pausing a
// stopped clock is a no-op.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

// Reset clears all state and history unconditionally, including after
// death.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elapsedS = 0
	c.running = false
	c.terminated = false
	c.ticks = 0
	c.latest = Record{}
	c.verdict = survival.Alive()
	c.start = 0
	c.count = 0
}

// SetSpeed changes the wall-time multiplier. It may be called at any
// point in a run; only future ticks are affected.
func (c *Clock) SetSpeed(multiplier float64) error {
	if multiplier < MinSpeed || multiplier > MaxSpeed {
		return fmt.Errorf("%w: speed %.1f outside [%.0f, %.0f]",
			ErrOutOfRange, multiplier, MinSpeed, MaxSpeed)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = multiplier
	return nil
}

// Tick advances the simulation by one wall-clock step. While paused or
// after death it changes nothing and returns the current snapshot.
func (c *Clock) Tick(wallDeltaS float64) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.terminated {
		return c.snapshotLocked()
	}

	c.elapsedS += wallDeltaS * c.speed
	heightM := c.elapsedS * AscentRate

	rec := Sample(heightM, c.elapsedS)
	c.latest = rec
	c.appendLocked(rec)
	c.ticks++

	verdict := survival.Evaluate(heightM, rec.OxygenPPAtm, rec.BloodOxygenPct, rec.BodyTempC)
	if verdict.Dead {
		// Latch: the verdict is final and progression freezes here.
		c.verdict = verdict
		c.terminated = true
		c.running = false
	}

	return c.snapshotLocked()
}

// State returns a read-only snapshot of the most recently completed
// tick.
func (c *Clock) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// History returns the retained samples in time order, oldest first.
func (c *Clock) History() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, c.count)
	for i := 0; i < c.count; i++ {
		out[i] = c.buf[(c.start+i)%len(c.buf)]
	}
	return out
}

func (c *Clock) snapshotLocked() Snapshot {
	return Snapshot{
		State: State{
			ElapsedS:   c.elapsedS,
			HeightM:    c.elapsedS * AscentRate,
			Speed:      c.speed,
			Running:    c.running,
			Terminated: c.terminated,
			Ticks:      c.ticks,
		},
		Latest:  c.latest,
		Verdict: c.verdict,
	}
}

func (c *Clock) appendLocked(rec Record) {
	if c.count < len(c.buf) {
		c.buf[(c.start+c.count)%len(c.buf)] = rec
		c.count++
		return
	}
	// Full: overwrite the oldest and advance.
	c.buf[c.start] = rec
	c.start = (c.start + 1) % len(c.buf)
}
