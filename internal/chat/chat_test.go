package chat

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/talgya/ascent/internal/clock"
	"github.com/talgya/ascent/internal/survival"
)

func snapAt(heightM, elapsedS float64) clock.Snapshot {
	rec := clock.Sample(heightM, elapsedS)
	return clock.Snapshot{
		State: clock.State{
			ElapsedS: elapsedS,
			HeightM:  heightM,
			Speed:    clock.DefaultSpeed,
			Running:  true,
		},
		Latest:  rec,
		Verdict: survival.Alive(),
	}
}

func deadSnap(heightM, elapsedS float64) clock.Snapshot {
	s := snapAt(heightM, elapsedS)
	s.State.Running = false
	s.State.Terminated = true
	s.Verdict = survival.Evaluate(heightM, s.Latest.OxygenPPAtm, s.Latest.BloodOxygenPct, 20)
	return s
}

func TestFindPersona(t *testing.T) {
	tests := []struct {
		name string
		want Persona
		ok   bool
	}{
		{"moss", Companion, true},
		{"MOSS", Companion, true},
		{"mos", Companion, true},
		{"mortician", Mortician, true},
		{"undertakr", Mortician, true},
		{"future", FutureSelf, true},
		{"futre", FutureSelf, true},
		{"xyzzy", Companion, false},
		{"", Companion, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindPersona(tt.name)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("FindPersona(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		name string
		snap clock.Snapshot
		want band
	}{
		{"ground", snapAt(0, 0), bandLow},
		{"1.9 km", snapAt(1900, 6000), bandLow},
		{"2 km", snapAt(2000, 6600), bandMid},
		{"5 km", snapAt(5000, 16500), bandCritical},
		{"low oxygen overrides height", snapAt(4600, 15000), bandCritical},
		{"dead", deadSnap(5200, 17000), bandDead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bandFor(tt.snap); got != tt.want {
				t.Errorf("bandFor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSystemPromptRebuiltOncePerBand(t *testing.T) {
	s := NewSession(Companion, nil, nil)

	s.refreshSystem(snapAt(100, 300))
	first := s.msgs[0].Content

	// Same band: prompt untouched even though the numbers moved.
	s.refreshSystem(snapAt(500, 1600))
	if s.msgs[0].Content != first {
		t.Error("system prompt rebuilt within the same band")
	}

	// Band transition: prompt rebuilt.
	s.refreshSystem(snapAt(2100, 6900))
	if s.msgs[0].Content == first {
		t.Error("system prompt not rebuilt on band transition")
	}
	if !strings.Contains(s.msgs[0].Content, "2.10 km") {
		t.Errorf("rebuilt prompt missing current height: %q", s.msgs[0].Content)
	}
}

func TestObserveFiresTriggerInWindow(t *testing.T) {
	s := NewSession(Companion, nil, nil)

	got := s.Observe(snapAt(50, 164))
	if len(got) != 1 {
		t.Fatalf("emitted %d messages at ground level, want 1", len(got))
	}
	if !strings.Contains(got[0], "slow liftoff") {
		t.Errorf("unexpected opening message: %q", got[0])
	}

	// Re-observing in the same window: nothing new.
	if again := s.Observe(snapAt(60, 197)); len(again) != 0 {
		t.Errorf("trigger fired twice: %v", again)
	}
}

func TestObserveBackfillsMissedWindows(t *testing.T) {
	// First observation happens at 3 km: the 0km and 2km windows were
	// both skipped and must be backfilled with canonical-altitude
	// conditions.
	s := NewSession(Companion, nil, nil)
	got := s.Observe(snapAt(3000, 9843))
	if len(got) != 2 {
		t.Fatalf("emitted %d messages, want 2 backfills", len(got))
	}

	// The 2km message interpolates the oxygen fraction at exactly 2000m,
	// not at the live 3000m.
	rec := clock.Sample(2000, 9843)
	wantPct := fmt.Sprintf("%.1f%%", rec.OxygenPPAtm/0.21*100)
	if !strings.Contains(got[1], wantPct) {
		t.Errorf("2km backfill not derived at canonical altitude: want %s in %q", wantPct, got[1])
	}

	// All three personas carry distinct scripts.
	for _, p := range Personas {
		ps := NewSession(p, nil, nil)
		if msgs := ps.Observe(snapAt(4500, 14764)); len(msgs) == 0 {
			t.Errorf("persona %v emitted nothing by 4.5 km", p)
		}
	}
}

func TestSessionConcurrentUse(t *testing.T) {
	// One goroutine observes ascending snapshots (the driver's role)
	// while others read the transcript and reset the run (the HTTP
	// handlers' role). Meaningful under the race detector.
	s := NewSession(Companion, nil, nil)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			h := float64(i) * 30
			s.Observe(snapAt(h, h/clock.AscentRate))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.Transcript()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			s.Reset()
		}
	}()
	wg.Wait()

	// The session is still coherent: a fresh run replays the opening
	// trigger.
	s.Reset()
	if msgs := s.Observe(snapAt(50, 164)); len(msgs) != 1 {
		t.Errorf("emitted %d messages after concurrent use and reset, want 1", len(msgs))
	}
}

func TestSayWithoutBackend(t *testing.T) {
	s := NewSession(Mortician, nil, nil)
	if _, err := s.Say("hello", snapAt(100, 300)); err == nil {
		t.Fatal("expected error with no chat backend configured")
	}
}

func TestTranscriptSkipsSystem(t *testing.T) {
	s := NewSession(FutureSelf, nil, nil)
	s.Observe(snapAt(50, 164))
	for _, m := range s.Transcript() {
		if m.Role == "system" {
			t.Fatal("transcript leaked the system message")
		}
	}
	if len(s.Transcript()) == 0 {
		t.Fatal("transcript empty after an emitted trigger")
	}
}
