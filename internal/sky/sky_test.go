package sky

import "testing"

func TestDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for _, h := range []float64{0, 1500, 6000, 12000, 20000} {
		if a.At(h) != b.At(h) {
			t.Errorf("same seed diverged at height %v", h)
		}
	}
}

func TestCoverInRange(t *testing.T) {
	f := New(7)
	for h := 0.0; h <= 25000; h += 250 {
		c := f.At(h)
		if c.CloudCoverPct < 0 || c.CloudCoverPct > 100 {
			t.Fatalf("cover %v out of range at height %v", c.CloudCoverPct, h)
		}
		if c.Description == "" {
			t.Fatalf("empty description at height %v", h)
		}
	}
}

func TestStratosphereClears(t *testing.T) {
	f := New(42)
	if c := f.At(16000); c.CloudCoverPct != 0 {
		t.Errorf("cover at 16 km = %v, want 0", c.CloudCoverPct)
	}
}
