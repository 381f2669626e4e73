package clock

import (
	"github.com/talgya/ascent/internal/atmosphere"
	"github.com/talgya/ascent/internal/physiology"
)

// Record is one history sample, captured on every tick while running.
// Tags cover all three collaborator encodings: JSON for the API, csv
// for export, db for persistence.
type Record struct {
	ElapsedS       float64 `json:"t_s" csv:"t_s" db:"t_s"`
	HeightM        float64 `json:"height_m" csv:"height_m" db:"height_m"`
	TemperatureC   float64 `json:"temperature_c" csv:"temperature_c" db:"temperature_c"`
	PressureAtm    float64 `json:"pressure_atm" csv:"pressure_atm" db:"pressure_atm"`
	OxygenPPAtm    float64 `json:"oxygen_partial_pressure_atm" csv:"oxygen_partial_pressure_atm" db:"oxygen_pp_atm"`
	BloodOxygenPct float64 `json:"blood_oxygen_pct" csv:"blood_oxygen_pct" db:"blood_oxygen_pct"`
	BodyTempC      float64 `json:"body_temperature_c" csv:"body_temperature_c" db:"body_temp_c"`
}

// Sample derives the full record for an arbitrary height and exposure
// time without touching any clock state. Collaborators use it for
// off-clock probes, e.g. recomputing conditions at an altitude whose
// trigger window was skipped between refreshes.
func Sample(heightM, elapsedS float64) Record {
	env := atmosphere.At(heightM)
	return Record{
		ElapsedS:       elapsedS,
		HeightM:        heightM,
		TemperatureC:   env.TemperatureC,
		PressureAtm:    env.PressureAtm,
		OxygenPPAtm:    env.OxygenPPAtm,
		BloodOxygenPct: physiology.BloodOxygenSaturation(env.OxygenPPAtm),
		BodyTempC:      physiology.BodyTemperature(env.TemperatureC, elapsedS),
	}
}
