// Package physiology maps environmental conditions and elapsed exposure
// time onto blood oxygen saturation and core body temperature. Both
// models are coarse first-order approximations, not real human
// physiology.
package physiology

import "math"

// BaselineBodyTempC is the healthy core temperature the models start
// from. Body temperature never rises above it (there is no heating
// model).
const BaselineBodyTempC = 37.0

// Saturation curve anchors: 98% at the sea-level oxygen partial
// pressure, 70% at the 0.10 atm danger line, hard floor at 50%.
const (
	normalOxygenPP = 0.21
	dangerOxygenPP = 0.10
	normalSatPct   = 98.0
	dangerSatPct   = 70.0
	floorSatPct    = 50.0
)

// BloodOxygenSaturation estimates blood oxygen saturation (%) from the
// oxygen partial pressure (atm). Linear between the anchors, a steep
// 200 %/atm fall below the danger line, clamped at 50%. Continuous at
// both anchor points.
func BloodOxygenSaturation(oxygenPP float64) float64 {
	switch {
	case oxygenPP >= normalOxygenPP:
		return normalSatPct
	case oxygenPP >= dangerOxygenPP:
		span := (oxygenPP - dangerOxygenPP) / (normalOxygenPP - dangerOxygenPP)
		return dangerSatPct + span*(normalSatPct-dangerSatPct)
	default:
		return math.Max(floorSatPct, dangerSatPct-(dangerOxygenPP-oxygenPP)*200)
	}
}

// BodyTemperature returns core temperature (°C) after elapsedS seconds
// exposed to envTempC. The cooling rate is band-dependent, expressed in
// °C per hour and scaled by the fraction of the full 27 °C gap between
// baseline and a mild 10 °C environment. Each band also sets a floor:
// finite human insulation keeps the body from cooling toward ambient
// without bound, however long the exposure lasts.
func BodyTemperature(envTempC, elapsedS float64) float64 {
	if envTempC >= BaselineBodyTempC {
		return BaselineBodyTempC
	}

	diff := BaselineBodyTempC - envTempC

	var ratePerHour, floor float64
	switch {
	case envTempC > 10: // mild
		ratePerHour = 0.15
		floor = 32.0
	case envTempC > 0: // cool
		ratePerHour = 0.4
		floor = 30.0
	case envTempC > -20: // cold
		ratePerHour = 1.0
		floor = math.Max(25.0, envTempC+15)
	default: // extreme
		ratePerHour = 2.0
		floor = math.Max(20.0, envTempC+12)
	}

	ratePerSec := ratePerHour * (diff / 27.0) / 3600.0
	return math.Max(floor, BaselineBodyTempC-ratePerSec*elapsedS)
}
