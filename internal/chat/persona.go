package chat

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Persona identifies one of the three riding companions.
type Persona uint8

const (
	// Companion is MOSS: a humorous, scientifically literate AI buddy.
	Companion Persona = iota
	// Mortician accompanies the subject on the last journey, elegiac
	// and philosophical.
	Mortician
	// FutureSelf is the user forty years on, leaked through a fault in
	// the timeline.
	FutureSelf
)

// Personas lists every persona.
var Personas = []Persona{Companion, Mortician, FutureSelf}

func (p Persona) String() string {
	switch p {
	case Mortician:
		return "mortician"
	case FutureSelf:
		return "future-self"
	default:
		return "moss"
	}
}

// DisplayName is the name the persona uses for itself.
func (p Persona) DisplayName() string {
	switch p {
	case Mortician:
		return "The Mortician"
	case FutureSelf:
		return "Future Self"
	default:
		return "MOSS"
	}
}

var personaAliases = map[Persona][]string{
	Companion:  {"moss", "companion", "buddy"},
	Mortician:  {"mortician", "undertaker"},
	FutureSelf: {"future-self", "future self", "future", "older self"},
}

// FindPersona resolves a user-supplied name to a persona, tolerating
// typos up to an edit distance of 2 against any alias.
func FindPersona(name string) (Persona, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Companion, false
	}

	best := Companion
	bestDist := len(name) + 1
	for p, aliases := range personaAliases {
		for _, alias := range aliases {
			dist := levenshtein.ComputeDistance(name, alias)
			if dist < bestDist {
				bestDist = dist
				best = p
			}
		}
	}

	if bestDist > 2 {
		return Companion, false
	}
	return best, true
}
