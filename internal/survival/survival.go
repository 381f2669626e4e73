// Package survival classifies whether the subject is still alive given
// the current oxygen partial pressure, blood oxygen saturation, and
// core body temperature. There are exactly two terminal causes and no
// warning states: warnings are a presentation concern.
package survival

import "fmt"

// Cause identifies why a verdict is fatal.
type Cause uint8

const (
	CauseNone Cause = iota
	CauseAsphyxiation
	CauseHypothermia
)

func (c Cause) String() string {
	switch c {
	case CauseAsphyxiation:
		return "asphyxiation"
	case CauseHypothermia:
		return "hypothermia"
	default:
		return "none"
	}
}

// Fatal thresholds. The asphyxiation cutoff is 0.10 atm of oxygen
// partial pressure, roughly the 5.8 km mark of the ascent.
const (
	AsphyxiaOxygenPPAtm = 0.10
	AsphyxiaBloodO2Pct  = 70.0
	HypothermiaTempC    = 28.0
)

// Verdict is the survival classification of one tick.
type Verdict struct {
	Dead   bool             `json:"dead"`
	Cause  Cause            `json:"cause"`
	Detail map[Cause]string `json:"-"`
}

// Alive is the verdict for a run that has not ended.
func Alive() Verdict {
	return Verdict{Cause: CauseNone}
}

// Evaluate classifies the current state. When both fatal conditions
// hold, asphyxiation wins: in this model it develops far faster than
// hypothermia does. The caller is expected to latch the first fatal
// verdict and stop consulting the evaluator for that run.
func Evaluate(heightM, oxygenPP, bloodOxygenPct, bodyTempC float64) Verdict {
	detail := make(map[Cause]string)

	if oxygenPP < AsphyxiaOxygenPPAtm || bloodOxygenPct < AsphyxiaBloodO2Pct {
		detail[CauseAsphyxiation] = fmt.Sprintf(
			"oxygen partial pressure fell to %.3f atm at ~%.1f km; blood oxygen %.1f%%, breathing can no longer be sustained",
			oxygenPP, heightM/1000, bloodOxygenPct)
	}
	if bodyTempC < HypothermiaTempC {
		detail[CauseHypothermia] = fmt.Sprintf(
			"core temperature fell to %.1f °C, below the %.0f °C survival limit",
			bodyTempC, HypothermiaTempC)
	}

	if len(detail) == 0 {
		return Alive()
	}

	cause := CauseHypothermia
	if _, ok := detail[CauseAsphyxiation]; ok {
		cause = CauseAsphyxiation
	}
	return Verdict{Dead: true, Cause: cause, Detail: detail}
}
