package clock

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/talgya/ascent/internal/survival"
)

func startedClock(t *testing.T) *Clock {
	t.Helper()
	c := New(0)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return c
}

func TestTickAdvancesAtSpeed(t *testing.T) {
	c := startedClock(t)
	// Default speed 100: one real second is 100 simulated seconds.
	snap := c.Tick(1.0)
	if math.Abs(snap.State.ElapsedS-100) > 1e-9 {
		t.Errorf("elapsed = %v, want 100", snap.State.ElapsedS)
	}
	if math.Abs(snap.State.HeightM-30.48) > 1e-9 {
		t.Errorf("height = %v, want 30.48", snap.State.HeightM)
	}
	if snap.Latest.HeightM != snap.State.HeightM {
		t.Errorf("latest record height %v != state height %v", snap.Latest.HeightM, snap.State.HeightM)
	}
}

func TestStartErrors(t *testing.T) {
	c := startedClock(t)
	if err := c.Start(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Start = %v, want ErrInvalidState", err)
	}

	runToDeath(t, c)
	if err := c.Start(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Start after death = %v, want ErrInvalidState", err)
	}
}

func TestPauseStopsAdvancement(t *testing.T) {
	c := startedClock(t)
	c.Tick(1.0)
	c.Pause()
	before := c.State()
	after := c.Tick(5.0)
	if after.State.ElapsedS != before.State.ElapsedS {
		t.Errorf("paused tick advanced elapsed: %v -> %v", before.State.ElapsedS, after.State.ElapsedS)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("resume after pause: %v", err)
	}
	resumed := c.Tick(1.0)
	if resumed.State.ElapsedS <= before.State.ElapsedS {
		t.Error("resumed tick did not advance")
	}
}

func TestSetSpeed(t *testing.T) {
	c := New(0)
	for _, bad := range []float64{49.9, 150.1, 0, -10, 1000} {
		if err := c.SetSpeed(bad); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("SetSpeed(%v) = %v, want ErrOutOfRange", bad, err)
		}
	}
	if err := c.SetSpeed(50); err != nil {
		t.Errorf("SetSpeed(50) = %v", err)
	}
	if err := c.SetSpeed(150); err != nil {
		t.Errorf("SetSpeed(150) = %v", err)
	}

	// The new multiplier only affects future ticks.
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	snap := c.Tick(1.0)
	if math.Abs(snap.State.ElapsedS-150) > 1e-9 {
		t.Errorf("elapsed = %v, want 150 at speed 150", snap.State.ElapsedS)
	}
}

// runToDeath ticks in large steps until the verdict latches.
func runToDeath(t *testing.T, c *Clock) Snapshot {
	t.Helper()
	for i := 0; i < 10000; i++ {
		snap := c.Tick(10.0)
		if snap.Verdict.Dead {
			return snap
		}
	}
	t.Fatal("clock never reached a fatal verdict")
	return Snapshot{}
}

func TestDeathLatches(t *testing.T) {
	c := startedClock(t)
	dead := runToDeath(t, c)

	if !dead.State.Terminated || dead.State.Running {
		t.Errorf("death did not terminate the run: %+v", dead.State)
	}

	// Repeated ticks change nothing: elapsed, height, and verdict are
	// frozen.
	for i := 0; i < 5; i++ {
		again := c.Tick(10.0)
		if again.State.ElapsedS != dead.State.ElapsedS {
			t.Fatalf("elapsed moved after death: %v -> %v", dead.State.ElapsedS, again.State.ElapsedS)
		}
		if again.State.HeightM != dead.State.HeightM {
			t.Fatalf("height moved after death: %v -> %v", dead.State.HeightM, again.State.HeightM)
		}
		if again.Verdict.Cause != dead.Verdict.Cause {
			t.Fatalf("verdict changed after death: %v -> %v", dead.Verdict.Cause, again.Verdict.Cause)
		}
	}
}

func TestAscentDiesOfHypothermiaFirst(t *testing.T) {
	// At 1 ft/s the cold band is reached after hours of exposure, so the
	// 9 °C core drop lands near 5 km, before oxygen partial pressure
	// crosses 0.10 atm (~5.8 km).
	c := startedClock(t)
	dead := runToDeath(t, c)
	if dead.Verdict.Cause != survival.CauseHypothermia {
		t.Errorf("cause = %v, want hypothermia", dead.Verdict.Cause)
	}
	if dead.State.HeightM < 4500 || dead.State.HeightM > 5900 {
		t.Errorf("death height = %v m, want within the ~5 km hypothermia range", dead.State.HeightM)
	}
	if dead.Latest.OxygenPPAtm < 0.10 {
		t.Errorf("oxygen pp %v already fatal at death; expected hypothermia to land first", dead.Latest.OxygenPPAtm)
	}
}

func TestReset(t *testing.T) {
	c := startedClock(t)
	runToDeath(t, c)
	c.Reset()

	snap := c.State()
	if snap.State.ElapsedS != 0 || snap.State.Terminated || snap.State.Running {
		t.Errorf("reset state = %+v, want zeroed", snap.State)
	}
	if snap.Verdict.Dead {
		t.Error("verdict survived reset")
	}
	if len(c.History()) != 0 {
		t.Error("history survived reset")
	}
	// A reset clock can start a fresh run.
	if err := c.Start(); err != nil {
		t.Errorf("Start after reset: %v", err)
	}
}

func TestHistoryBounded(t *testing.T) {
	c := startedClock(t)
	c.SetSpeed(50)

	var first Record
	for i := 0; i < DefaultHistoryCap+1; i++ {
		snap := c.Tick(0.0001)
		if i == 0 {
			first = snap.Latest
		}
		if snap.Verdict.Dead {
			t.Fatal("died during bounded-history test")
		}
	}

	h := c.History()
	if len(h) != DefaultHistoryCap {
		t.Fatalf("history length = %d, want %d", len(h), DefaultHistoryCap)
	}
	if h[0].ElapsedS == first.ElapsedS {
		t.Error("oldest record not evicted after overflow")
	}
	latest := c.State().Latest
	if h[len(h)-1].ElapsedS != latest.ElapsedS {
		t.Error("newest record missing from history")
	}
	for i := 1; i < len(h); i++ {
		if h[i].ElapsedS <= h[i-1].ElapsedS {
			t.Fatalf("history out of order at %d", i)
		}
	}
}

func TestSampleMatchesTick(t *testing.T) {
	c := startedClock(t)
	snap := c.Tick(1.0)
	probe := Sample(snap.State.HeightM, snap.State.ElapsedS)
	if probe != snap.Latest {
		t.Errorf("Sample() = %+v, want tick record %+v", probe, snap.Latest)
	}
}

func TestDriverTicksAndStops(t *testing.T) {
	c := startedClock(t)
	d := NewDriver(c)
	d.Interval = time.Millisecond

	ticks := 0
	d.OnTick = func(s Snapshot) {
		ticks++
		if ticks >= 5 {
			d.Stop()
		}
	}
	d.Run()

	if ticks < 5 {
		t.Fatalf("driver delivered %d ticks, want at least 5", ticks)
	}
	if c.State().State.ElapsedS <= 0 {
		t.Error("driver did not advance the clock")
	}
}

func TestDriverStopFromAnotherGoroutine(t *testing.T) {
	// The signal handler stops the driver from its own goroutine; Run
	// must return. Meaningful under the race detector.
	c := startedClock(t)
	d := NewDriver(c)
	d.Interval = time.Millisecond

	go func() {
		time.Sleep(10 * time.Millisecond)
		d.Stop()
	}()
	d.Run()

	if c.State().State.Ticks == 0 {
		t.Error("driver stopped before completing any tick")
	}
}
