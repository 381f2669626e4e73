// Package atmosphere models the environment of a vertical ascent using
// the two-layer standard atmosphere: a troposphere with a linear lapse
// rate and an isothermal lower stratosphere. Temperature, pressure, and
// oxygen partial pressure are all pure functions of height.
package atmosphere

import "math"

// Standard atmosphere constants (SI units).
const (
	SeaLevelTempC      = 15.0     // sea level temperature (°C)
	SeaLevelPressurePa = 101325.0 // sea level pressure (Pa)
	SeaLevelTempK      = 288.15   // sea level temperature (K)
	LapseRateKPerM     = 0.0065   // tropospheric lapse rate (K/m)
	Gravity            = 9.80665  // m/s²
	AirMolarMass       = 0.0289644 // kg/mol dry air
	GasConstant        = 8.31447  // J/(mol·K)

	TropopauseM       = 11000.0 // troposphere ceiling
	UpperStratoM      = 20000.0 // lower stratosphere ceiling
	StratoIsothermalK = 216.65  // isothermal stratosphere temperature (K)

	// Oxygen is assumed to stay at 21% of total pressure at every
	// height. Real gas mixing is out of scope.
	OxygenFraction = 0.21
)

// State is the full environment at one height.
type State struct {
	HeightM      float64 `json:"height_m"`
	TemperatureC float64 `json:"temperature_c"`
	PressureAtm  float64 `json:"pressure_atm"`
	OxygenPPAtm  float64 `json:"oxygen_partial_pressure_atm"`
}

// Temperature returns the ambient temperature in °C at a height in
// meters. Troposphere: linear lapse of 6.5 °C per km. Lower
// stratosphere (11–20 km): constant −56.5 °C. Above 20 km the model
// warms again by 1 °C per km.
func Temperature(heightM float64) float64 {
	switch {
	case heightM < TropopauseM:
		return SeaLevelTempC - 6.5*(heightM/1000)
	case heightM < UpperStratoM:
		return -56.5
	default:
		return -56.5 + (heightM-UpperStratoM)/1000
	}
}

// Pressure returns the ambient pressure in atm at a height in meters.
// Below the tropopause it uses the barometric formula
// P0·(1 − L·h/T0)^(g·M/(R·L)); above it, exponential decay from the
// tropopause pressure at the isothermal stratosphere temperature. The
// two branches agree at exactly 11000 m.
func Pressure(heightM float64) float64 {
	exponent := Gravity * AirMolarMass / (GasConstant * LapseRateKPerM)
	if heightM < TropopauseM {
		pa := SeaLevelPressurePa * math.Pow(1-LapseRateKPerM*heightM/SeaLevelTempK, exponent)
		return pa / SeaLevelPressurePa
	}
	tropopausePa := SeaLevelPressurePa * math.Pow(1-LapseRateKPerM*TropopauseM/SeaLevelTempK, exponent)
	pa := tropopausePa * math.Exp(-Gravity*AirMolarMass*(heightM-TropopauseM)/(GasConstant*StratoIsothermalK))
	return pa / SeaLevelPressurePa
}

// OxygenPartialPressure returns the oxygen partial pressure in atm for
// a total pressure in atm.
func OxygenPartialPressure(pressureAtm float64) float64 {
	return pressureAtm * OxygenFraction
}

// At evaluates the complete atmospheric state at a height.
func At(heightM float64) State {
	p := Pressure(heightM)
	return State{
		HeightM:      heightM,
		TemperatureC: Temperature(heightM),
		PressureAtm:  p,
		OxygenPPAtm:  OxygenPartialPressure(p),
	}
}
