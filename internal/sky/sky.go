// Package sky generates deterministic scenery descriptors for the
// ascent: cloud cover and a short sky description as a function of
// height. Pure presentation flavor for the chat personas and the status
// endpoint; nothing here feeds back into the simulation core.
package sky

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Conditions describes the view at one height.
type Conditions struct {
	CloudCoverPct float64 `json:"cloud_cover_pct"`
	Description   string  `json:"description"`
}

// Field samples a noise field over height. The same seed always yields
// the same sky for a given altitude.
type Field struct {
	noise opensimplex.Noise
}

// New creates a sky field from a seed.
func New(seed int64) *Field {
	return &Field{noise: opensimplex.NewNormalized(seed)}
}

// At returns the scenery at a height in meters.
func (f *Field) At(heightM float64) Conditions {
	// Two octaves over a ~3 km wavelength give cloud banks that change
	// gradually during the climb.
	n := 0.7*f.noise.Eval2(heightM/3000, 0) + 0.3*f.noise.Eval2(heightM/800, 7.3)
	cover := math.Max(0, math.Min(100, n*100))

	// Cloud decks thin out with altitude; above the tropopause the air
	// is effectively clear.
	if heightM > 11000 {
		cover *= math.Max(0, 1-(heightM-11000)/4000)
	}

	return Conditions{
		CloudCoverPct: cover,
		Description:   describe(heightM, cover),
	}
}

func describe(heightM, cover float64) string {
	switch {
	case heightM >= 15000:
		return "near-black indigo, stars visible in daylight"
	case heightM >= 11000:
		return "deep violet sky, the cloud deck a distant floor"
	case heightM >= 6000:
		if cover > 50 {
			return "broken cirrus below, horizon curving at the edges"
		}
		return "dark blue overhead, haze banding the horizon"
	case heightM >= 2000:
		if cover > 60 {
			return "inside and above the cloud tops"
		}
		return "scattered cumulus drifting underneath"
	default:
		if cover > 60 {
			return "grey overcast pressing down"
		}
		return "open sky, ground features still sharp"
	}
}
