package chat

import (
	"fmt"
	"sync"

	"github.com/talgya/ascent/internal/clock"
	"github.com/talgya/ascent/internal/sky"
)

// Session is one persona's conversation for one run: the transcript,
// the set of fired altitude triggers, and the band the system prompt
// was last built for. The driver observes a session on every tick
// while HTTP handlers talk and reset it, so all state lives behind
// one mutex.
type Session struct {
	Persona Persona

	client *Client
	view   *sky.Field

	mu       sync.Mutex
	msgs     []Message
	shown    map[string]bool
	lastBand band
	primed   bool
}

// NewSession creates a session. client may be nil (scripted messages
// only); view may be nil (no scenery in prompts).
func NewSession(p Persona, client *Client, view *sky.Field) *Session {
	return &Session{
		Persona: p,
		client:  client,
		view:    view,
		shown:   make(map[string]bool),
	}
}

// Reset clears the transcript and trigger bookkeeping for a new run.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = nil
	s.shown = make(map[string]bool)
	s.lastBand = bandLow
	s.primed = false
}

// refreshSystem rebuilds the system message when the band changes (or
// on first use), leaving the rest of the transcript intact. Callers
// hold s.mu.
func (s *Session) refreshSystem(snap clock.Snapshot) {
	b := bandFor(snap)
	if s.primed && b == s.lastBand {
		return
	}

	prompt := systemPrompt(s.Persona, snap, s.conditions(snap))
	if len(s.msgs) > 0 && s.msgs[0].Role == "system" {
		s.msgs[0] = Message{Role: "system", Content: prompt}
	} else {
		s.msgs = append([]Message{{Role: "system", Content: prompt}}, s.msgs...)
	}
	s.lastBand = b
	s.primed = true
}

func (s *Session) conditions(snap clock.Snapshot) sky.Conditions {
	if s.view == nil {
		return sky.Conditions{Description: "unremarkable"}
	}
	return s.view.At(snap.State.HeightM)
}

// Observe advances the session against a fresh snapshot: it refreshes
// the system prompt and emits any scripted messages whose altitude
// window the ascent is inside, or has already passed without firing.
// Missed windows are backfilled from an off-clock Sample at the
// trigger's canonical altitude, so the text reflects the conditions the
// message is about rather than the current ones. Returns the messages
// emitted by this call.
func (s *Session) Observe(snap clock.Snapshot) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshSystem(snap)

	km := snap.State.HeightM / 1000
	var emitted []string
	for _, tr := range triggers {
		if s.shown[tr.key] {
			continue
		}

		var rec clock.Record
		switch {
		case km >= tr.lowKm && km < tr.highKm:
			rec = snap.Latest
		case km >= tr.highKm:
			// Window skipped between refreshes; re-derive conditions at
			// the canonical altitude.
			rec = clock.Sample(tr.canonicalM, snap.State.ElapsedS)
		default:
			continue
		}

		text := autoMessage(s.Persona, tr.key, rec)
		if text == "" {
			continue
		}
		s.msgs = append(s.msgs, Message{Role: "assistant", Content: text})
		s.shown[tr.key] = true
		emitted = append(emitted, text)
	}
	return emitted
}

// Say sends a user message and returns the persona's reply. The system
// prompt is refreshed against the snapshot first so the reply reflects
// the current state of the ascent.
func (s *Session) Say(userMsg string, snap clock.Snapshot) (string, error) {
	if !s.client.Enabled() {
		return "", fmt.Errorf("chat backend not configured")
	}

	s.mu.Lock()
	s.refreshSystem(snap)
	s.msgs = append(s.msgs, Message{Role: "user", Content: userMsg})
	// Snapshot the transcript so the tick loop is not blocked behind
	// the completion call.
	transcript := append([]Message(nil), s.msgs...)
	s.mu.Unlock()

	reply, err := s.client.Complete(transcript)
	if err != nil {
		// Keep the user message; the next attempt resends it.
		return "", fmt.Errorf("%s reply: %w", s.Persona.DisplayName(), err)
	}

	s.mu.Lock()
	s.msgs = append(s.msgs, Message{Role: "assistant", Content: reply})
	s.mu.Unlock()
	return reply, nil
}

// Transcript returns a copy of the conversation without the system
// message.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Message
	for _, m := range s.msgs {
		if m.Role == "system" {
			continue
		}
		out = append(out, m)
	}
	return out
}
