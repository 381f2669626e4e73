package export

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/talgya/ascent/internal/clock"
)

func ascentHistory(n int) []clock.Record {
	out := make([]clock.Record, n)
	for i := range out {
		t := float64(i+1) * 100
		out[i] = clock.Sample(t*clock.AscentRate, t)
	}
	return out
}

func TestWriteHistory(t *testing.T) {
	dir := t.TempDir()
	runID := uuid.New()
	history := ascentHistory(50)

	path, err := WriteHistory(dir, runID, history)
	if err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != len(history)+1 {
		t.Errorf("csv has %d lines, want %d data rows plus header", len(lines), len(history))
	}
	if !strings.Contains(lines[0], "height_m") || !strings.Contains(lines[0], "blood_oxygen_pct") {
		t.Errorf("header missing expected columns: %q", lines[0])
	}
}

func TestWriteStats(t *testing.T) {
	dir := t.TempDir()
	runID := uuid.New()

	path, err := WriteStats(dir, runID, Compute(ascentHistory(10)))
	if err != nil {
		t.Fatalf("WriteStats: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "min_blood_oxygen_pct") {
		t.Errorf("stats json missing fields: %s", data)
	}
}

func TestComputeStats(t *testing.T) {
	history := ascentHistory(100)
	s := Compute(history)

	if s.Samples != 100 {
		t.Errorf("samples = %d, want 100", s.Samples)
	}
	if s.MaxHeightM != history[99].HeightM {
		t.Errorf("max height = %v, want %v", s.MaxHeightM, history[99].HeightM)
	}
	// Blood oxygen falls monotonically during an ascent, so the minimum
	// is the last sample and the mean sits between the extremes.
	if s.MinBloodOxygen != history[99].BloodOxygenPct {
		t.Errorf("min blood oxygen = %v, want %v", s.MinBloodOxygen, history[99].BloodOxygenPct)
	}
	if s.MeanBloodOxygen < s.MinBloodOxygen || s.MeanBloodOxygen > 98.0 {
		t.Errorf("mean blood oxygen %v outside [min, 98]", s.MeanBloodOxygen)
	}
	if s.P10BloodOxygen > s.P90BloodOxygen {
		t.Errorf("p10 %v above p90 %v", s.P10BloodOxygen, s.P90BloodOxygen)
	}
	if s.MeanCoolingCPerH < 0 {
		t.Errorf("cooling rate %v negative during an ascent", s.MeanCoolingCPerH)
	}
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil)
	if s != (RunStats{}) {
		t.Errorf("empty history stats = %+v, want zero value", s)
	}
}

func TestComputeSingleSample(t *testing.T) {
	s := Compute(ascentHistory(1))
	if s.Samples != 1 || math.IsNaN(s.MeanBloodOxygen) {
		t.Errorf("single-sample stats = %+v", s)
	}
	if s.MeanCoolingCPerH != 0 {
		t.Errorf("cooling rate with one sample = %v, want 0", s.MeanCoolingCPerH)
	}
}
