package export

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/talgya/ascent/internal/clock"
)

// RunStats summarizes the retained history of one run.
type RunStats struct {
	Samples          int     `json:"samples"`
	MaxHeightM       float64 `json:"max_height_m"`
	FinalBodyTempC   float64 `json:"final_body_temperature_c"`
	MinBloodOxygen   float64 `json:"min_blood_oxygen_pct"`
	MeanBloodOxygen  float64 `json:"mean_blood_oxygen_pct"`
	P10BloodOxygen   float64 `json:"p10_blood_oxygen_pct"`
	P90BloodOxygen   float64 `json:"p90_blood_oxygen_pct"`
	MinAmbientTempC  float64 `json:"min_ambient_temperature_c"`
	MeanCoolingCPerH float64 `json:"mean_cooling_c_per_hour"`
}

// Compute derives summary statistics from a history window. An empty
// history yields the zero value.
func Compute(history []clock.Record) RunStats {
	if len(history) == 0 {
		return RunStats{}
	}

	blood := make([]float64, len(history))
	ambient := make([]float64, len(history))
	for i, r := range history {
		blood[i] = r.BloodOxygenPct
		ambient[i] = r.TemperatureC
	}

	sortedBlood := append([]float64(nil), blood...)
	sort.Float64s(sortedBlood)
	sortedAmbient := append([]float64(nil), ambient...)
	sort.Float64s(sortedAmbient)

	first, last := history[0], history[len(history)-1]
	s := RunStats{
		Samples:         len(history),
		MaxHeightM:      last.HeightM,
		FinalBodyTempC:  last.BodyTempC,
		MinBloodOxygen:  sortedBlood[0],
		MeanBloodOxygen: stat.Mean(blood, nil),
		P10BloodOxygen:  stat.Quantile(0.1, stat.Empirical, sortedBlood, nil),
		P90BloodOxygen:  stat.Quantile(0.9, stat.Empirical, sortedBlood, nil),
		MinAmbientTempC: sortedAmbient[0],
	}

	if dt := last.ElapsedS - first.ElapsedS; dt > 0 {
		s.MeanCoolingCPerH = (first.BodyTempC - last.BodyTempC) / dt * 3600
	}
	return s
}
