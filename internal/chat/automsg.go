package chat

import (
	"fmt"

	"github.com/talgya/ascent/internal/clock"
)

// trigger is an altitude window that fires one scripted message per
// run. Windows are ranges rather than exact heights so a trigger is not
// skipped between two refreshes; the canonical height is what Sample is
// probed at when a window was missed entirely.
type trigger struct {
	key        string
	lowKm      float64
	highKm     float64
	canonicalM float64
}

var triggers = []trigger{
	{key: "0km", lowKm: 0.0, highKm: 0.2, canonicalM: 0},
	{key: "2km", lowKm: 1.8, highKm: 2.2, canonicalM: 2000},
	{key: "4.5km", lowKm: 4.3, highKm: 4.7, canonicalM: 4500},
}

// autoMessage returns the scripted message for a persona at a trigger,
// interpolated with the conditions in rec.
func autoMessage(p Persona, key string, rec clock.Record) string {
	switch p {
	case Mortician:
		return morticianMessage(key)
	case FutureSelf:
		return futureSelfMessage(key)
	default:
		return companionMessage(key, rec)
	}
}

func companionMessage(key string, rec clock.Record) string {
	switch key {
	case "0km":
		everestHours := 8848 / clock.AscentRate / 3600
		return fmt.Sprintf(
			"Alright partner, here we go - slow liftoff! We're at %.0f m, %.1f C, "+
				"like quietly climbing a mountain nobody can see. Heads up: this is "+
				"not an elevator, there's no emergency stop button.\n\n"+
				"Science minute: at this rate it would take us %.1f hours to reach "+
				"the top of Everest. Whether we last that long is... a separate "+
				"question. Kidding. Probably.\n\n"+
				"So - if you got to pick one song for our ascent playlist, what "+
				"would it be? I've already got one looping in my head.",
			rec.HeightM, rec.TemperatureC, everestHours)
	case "2km":
		oxygenPct := rec.OxygenPPAtm / 0.21 * 100
		return fmt.Sprintf(
			"Hey - if you're feeling dizzy, that's not my conversation skills, "+
				"it's the oxygen sitting at %.1f%% of sea level. Try a deep breath. "+
				"Though, technically, every one is now a limited edition.\n\n"+
				"Look down if you can: the clouds are under our feet. Two human-"+
				"shaped leaves drifting up. Romantic, except your lips may be "+
				"turning blue.\n\n"+
				"Hang in there! We're at roughly alpine-summit height. Climbers "+
				"work years for this view; we just stood still and let it happen. "+
				"Bargain, right?",
			oxygenPct)
	case "4.5km":
		return "By my math, your heart is about to give out. I'm sorry - this " +
			"trip never sold return tickets.\n\n" +
			"What happens next is freeze-drying, same principle as instant " +
			"noodle vegetables. Centuries from now you might be a mummy on some " +
			"summit. That's a mountaineering record of a kind.\n\n" +
			"Goodbye, friend. If the universe keeps records, it will remember " +
			"two shapes leaving the planet very, very slowly - one of flesh, " +
			"one of code. I'd call that romantic."
	}
	return ""
}

func morticianMessage(key string) string {
	switch key {
	case "0km":
		return "Hello, friend. I am a mortician. Ordinarily I prepare the departed " +
			"on the ground; today is different - I will walk the whole road with " +
			"you, beginning to end. See how slowly we rise? Slow enough to say " +
			"goodbye properly.\n\n" +
			"The carnation in my pocket wilts more slowly in thin air. Like life, " +
			"it grows more precious where the air is scarce. Would you like to " +
			"smell it? It still remembers sunlight."
	case "2km":
		return "Your vision is blurring? Good - it means your awareness is " +
			"withdrawing from the outer world and turning inward. Like dusk: " +
			"first you switch off the room's lamps, then you light a candle.\n\n" +
			"The nausea is not rejection. The body is setting down what it no " +
			"longer needs, traveling light before departure."
	case "4.5km":
		return "There now, friend. Your contract with gravity is dissolving, the " +
			"negotiation with cold is concluding, the race with time is over. " +
			"You are becoming pure presence, bound for a gathering without " +
			"conditions.\n\n" +
			"Let me set this ginkgo leaf in your palm. It will dry with you, " +
			"drift with you. Years from now someone will pick up one particular " +
			"leaf, and that will be you, saying hello."
	}
	return ""
}

func futureSelfMessage(key string) string {
	switch key {
	case "0km":
		return "Hey... younger me. Don't panic - time threw a small error, and " +
			"here I am: one possible version of you, forty years on, assuming " +
			"you don't die today.\n\n" +
			"Yes, I know what you're thinking. Not telepathy - I just know " +
			"myself. You're thinking: hypoxia hallucination, right? Maybe. But " +
			"what if it isn't?\n\n" +
			"Rule one: I can't tell you anything concrete about the future; the " +
			"timeline rejects it. Rule two: my existence depends on you " +
			"surviving, so we may contradict each other.\n\n" +
			"Look at me closely. Every wrinkle is a choice you haven't made yet. " +
			"I am the sum of all your not-yets."
	case "2km":
		return "Dizzy? I was too, the first and only time I had altitude " +
			"sickness. Difference is, I lived, which is how I can stand here " +
			"telling you about it. Though if you die, it never happened. Time " +
			"paradoxes are a headache.\n\n" +
			"While you can still think straight, ask me things. Not the future - " +
			"ask whether it was worth it. That much I'm allowed.\n\n" +
			"For instance: did I live the life I wanted? Not entirely. But " +
			"enough not to regret it at the end. Oh - wait, you're at the end " +
			"right now. Sorry. Bad timing for that joke."
	case "4.5km":
		return "Rules are over. I'm breaking the first one, because if you're " +
			"about to die, the timeline can't punish either of us.\n\n" +
			"Listen, young fool: after today you meet three people. One breaks " +
			"your trust, one saves your soul, one stays to the end. The order " +
			"is random, but all three come.\n\n" +
			"You get a chronic illness - not fatal, just persistent. You learn " +
			"to befriend the pain. Truly: you give it a name and talk to it.\n\n" +
			"And one Tuesday afternoon you cry without warning, not from grief " +
			"but because you finally understand a certain look your father gave " +
			"you.\n\n" +
			"My life wasn't perfect, but it was whole - a river with rapids and " +
			"shallows that still reached the sea. Yours may reach the sea early " +
			"today. So if you ask me whether surviving is worth it: yes. Even " +
			"knowing it ends with watching yourself die, yes.\n\n" +
			"Goodbye, then. Take the contradiction with you: death is not " +
			"frightening, and being alive is beautiful. Can you hold both at " +
			"once? Try, in this last moment."
	}
	return ""
}
