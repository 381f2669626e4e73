// Package api serves the simulation over HTTP. GET endpoints are
// public read-only observation; the control plane (start/pause/reset/
// speed) requires a bearer token. Chat endpoints proxy persona
// conversations and are rate-limited per IP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/ascent/internal/chat"
	"github.com/talgya/ascent/internal/clock"
	"github.com/talgya/ascent/internal/export"
	"github.com/talgya/ascent/internal/sky"
)

// ChatRecorder receives every persona message the server handles, for
// persistence. Optional.
type ChatRecorder func(p chat.Persona, msg chat.Message, elapsedS float64)

// Server exposes a Clock and its chat sessions over HTTP.
type Server struct {
	Clock    *clock.Clock
	Sessions map[chat.Persona]*chat.Session
	Sky      *sky.Field
	Port     int
	AdminKey string // bearer token for control endpoints; empty disables them
	Record   ChatRecorder
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	h := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, h); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Handler builds the full routed handler, middleware included. Start
// serves exactly this; tests exercise it directly.
func (s *Server) Handler() http.Handler {
	chatLimiter := NewRateLimiter(30, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/api/v1/sample", s.handleSample)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/chat/", limit(chatLimiter, s.handleChat))

	mux.HandleFunc("/api/v1/start", s.adminOnly(s.handleStart))
	mux.HandleFunc("/api/v1/pause", s.adminOnly(s.handlePause))
	mux.HandleFunc("/api/v1/reset", s.adminOnly(s.handleReset))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return corsMiddleware(mux)
}

// corsMiddleware allows localhost dev frontends to read the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminOnly requires a bearer token on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "control endpoints disabled (no admin key set)", http.StatusForbidden)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Clock.State()

	status := map[string]any{
		"state":         snap.State,
		"latest":        snap.Latest,
		"verdict":       verdictJSON(snap),
		"height_human":  humanize.CommafWithDigits(snap.State.HeightM, 1) + " m",
		"elapsed_human": formatElapsed(snap.State.ElapsedS),
	}
	if s.Sky != nil {
		status["sky"] = s.Sky.At(snap.State.HeightM)
	}
	writeJSON(w, status)
}

func verdictJSON(snap clock.Snapshot) map[string]any {
	v := map[string]any{
		"dead":  snap.Verdict.Dead,
		"cause": snap.Verdict.Cause.String(),
	}
	if detail, ok := snap.Verdict.Detail[snap.Verdict.Cause]; ok {
		v["detail"] = detail
	}
	return v
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history := s.Clock.History()
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		if n < len(history) {
			history = history[len(history)-n:]
		}
	}
	writeJSON(w, history)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	heightM, err := strconv.ParseFloat(r.URL.Query().Get("height_m"), 64)
	if err != nil || heightM < 0 {
		http.Error(w, "height_m must be a non-negative number", http.StatusBadRequest)
		return
	}

	// Default the exposure time to the duration this ascent would need
	// to reach the probed height.
	elapsedS := heightM / clock.AscentRate
	if q := r.URL.Query().Get("elapsed_s"); q != "" {
		elapsedS, err = strconv.ParseFloat(q, 64)
		if err != nil || elapsedS < 0 {
			http.Error(w, "elapsed_s must be a non-negative number", http.StatusBadRequest)
			return
		}
	}

	writeJSON(w, clock.Sample(heightM, elapsedS))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, export.Compute(s.Clock.History()))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.Clock.Start(); err != nil {
		writeClockError(w, err)
		return
	}
	slog.Info("run started via API")
	writeJSON(w, s.Clock.State().State)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.Clock.Pause()
	slog.Info("run paused via API")
	writeJSON(w, s.Clock.State().State)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.Clock.Reset()
	for _, sess := range s.Sessions {
		sess.Reset()
	}
	slog.Info("run reset via API")
	writeJSON(w, s.Clock.State().State)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Multiplier float64 `json:"multiplier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := s.Clock.SetSpeed(body.Multiplier); err != nil {
		writeClockError(w, err)
		return
	}
	slog.Info("speed changed via API", "multiplier", body.Multiplier)
	writeJSON(w, s.Clock.State().State)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/chat/")
	persona, ok := chat.FindPersona(name)
	if !ok {
		http.Error(w, "unknown persona", http.StatusNotFound)
		return
	}
	sess, ok := s.Sessions[persona]
	if !ok {
		http.Error(w, "persona not available", http.StatusNotFound)
		return
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Message) == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return
	}

	snap := s.Clock.State()
	reply, err := sess.Say(body.Message, snap)
	if err != nil {
		slog.Error("chat failed", "persona", persona.String(), "error", err)
		http.Error(w, "chat backend error", http.StatusBadGateway)
		return
	}

	if s.Record != nil {
		s.Record(persona, chat.Message{Role: "user", Content: body.Message}, snap.State.ElapsedS)
		s.Record(persona, chat.Message{Role: "assistant", Content: reply}, snap.State.ElapsedS)
	}

	writeJSON(w, map[string]any{
		"persona": persona.String(),
		"reply":   reply,
	})
}

func writeClockError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clock.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, clock.ErrOutOfRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// formatElapsed renders simulated seconds the way a cockpit clock
// would.
func formatElapsed(s float64) string {
	switch {
	case s < 60:
		return fmt.Sprintf("%.1fs", s)
	case s < 3600:
		return fmt.Sprintf("%dm %.0fs", int(s)/60, s-float64(int(s)/60*60))
	default:
		h := int(s) / 3600
		m := (int(s) % 3600) / 60
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
