// Command ascentsim runs the high-altitude ascent survival simulation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/ascent/internal/api"
	"github.com/talgya/ascent/internal/chat"
	"github.com/talgya/ascent/internal/clock"
	"github.com/talgya/ascent/internal/config"
	"github.com/talgya/ascent/internal/export"
	"github.com/talgya/ascent/internal/persistence"
	"github.com/talgya/ascent/internal/sky"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults used when empty)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("ASCENT — high-altitude survival simulation")

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	runID := uuid.New()
	startedAt := time.Now()
	slog.Info("run created",
		"run_id", runID,
		"speed", cfg.Simulation.Speed,
		"ascent_rate_m_per_s", clock.AscentRate,
	)

	// ── Clock ─────────────────────────────────────────────────────────
	clk := clock.New(cfg.Simulation.HistoryCap)
	if err := clk.SetSpeed(cfg.Simulation.Speed); err != nil {
		slog.Error("invalid initial speed", "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Storage.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0755); err != nil {
			slog.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}
		db, err = persistence.Open(cfg.Storage.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.SetMeta("last_run_id", runID.String()); err != nil {
			slog.Error("failed to record run id", "error", err)
		}
		slog.Info("database opened", "path", cfg.Storage.DBPath)
	} else {
		slog.Warn("storage.db_path empty — persistence disabled")
	}

	// ── Chat personas ─────────────────────────────────────────────────
	chatKey := os.Getenv(cfg.Chat.APIKeyEnv)
	chatClient := chat.NewClient(cfg.Chat.BaseURL, cfg.Chat.Model, chatKey,
		cfg.Chat.Temperature, cfg.Chat.MaxPerMin)
	if chatClient.Enabled() {
		slog.Info("chat backend enabled", "model", cfg.Chat.Model)
	} else {
		slog.Warn(cfg.Chat.APIKeyEnv + " not set — personas limited to scripted messages")
	}

	view := sky.New(cfg.Sky.Seed)
	sessions := make(map[chat.Persona]*chat.Session, len(chat.Personas))
	for _, p := range chat.Personas {
		sessions[p] = chat.NewSession(p, chatClient, view)
	}

	// ── Tick wiring ───────────────────────────────────────────────────
	driver := clock.NewDriver(clk)
	driver.Interval = cfg.Simulation.TickInterval()

	var autosave func(clock.Snapshot)
	if db != nil {
		// Persist roughly every 10 simulated minutes of wall ticks.
		autosave = db.Autosaver(runID, clk, startedAt, 600)
	}

	var announcedDeath bool
	driver.OnTick = func(snap clock.Snapshot) {
		for _, p := range chat.Personas {
			for _, text := range sessions[p].Observe(snap) {
				slog.Info("persona message",
					"persona", p.String(),
					"height_m", humanize.CommafWithDigits(snap.State.HeightM, 0),
					"text", text,
				)
				if db != nil {
					if err := db.SaveChatMessage(runID, p, chat.Message{Role: "assistant", Content: text}, snap.State.ElapsedS); err != nil {
						slog.Error("save persona message failed", "error", err)
					}
				}
			}
		}

		if snap.Verdict.Dead && !announcedDeath {
			announcedDeath = true
			slog.Info("subject died",
				"cause", snap.Verdict.Cause.String(),
				"detail", snap.Verdict.Detail[snap.Verdict.Cause],
				"height_m", humanize.CommafWithDigits(snap.State.HeightM, 0),
				"elapsed_s", humanize.CommafWithDigits(snap.State.ElapsedS, 0),
			)
		}

		if autosave != nil {
			autosave(snap)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv(cfg.API.AdminKeyEnv)
	if adminKey == "" {
		slog.Warn(cfg.API.AdminKeyEnv + " not set — control endpoints will be disabled")
	}

	server := &api.Server{
		Clock:    clk,
		Sessions: sessions,
		Sky:      view,
		Port:     cfg.API.Port,
		AdminKey: adminKey,
	}
	if db != nil {
		server.Record = func(p chat.Persona, msg chat.Message, elapsedS float64) {
			if err := db.SaveChatMessage(runID, p, msg, elapsedS); err != nil {
				slog.Error("save chat message failed", "error", err)
			}
		}
	}
	server.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		driver.Stop()
	}()

	if cfg.Simulation.Autostart {
		if err := clk.Start(); err != nil {
			slog.Error("failed to start run", "error", err)
			os.Exit(1)
		}
	}

	fmt.Printf("\nAscent %s begins at sea level, climbing %.4f m/s at %dx speed.\n",
		runID, clock.AscentRate, int(cfg.Simulation.Speed))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	fmt.Println("Running... (Ctrl+C to stop)")

	driver.Run()

	// ── Shutdown: final save and export ───────────────────────────────
	final := clk.State()
	if db != nil {
		if err := db.SaveRun(runID, final, clk.History(), startedAt); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}
	if cfg.Export.Dir != "" && len(clk.History()) > 0 {
		if path, err := export.WriteHistory(cfg.Export.Dir, runID, clk.History()); err != nil {
			slog.Error("history export failed", "error", err)
		} else {
			slog.Info("history exported", "path", path)
		}
		if path, err := export.WriteStats(cfg.Export.Dir, runID, export.Compute(clk.History())); err != nil {
			slog.Error("stats export failed", "error", err)
		} else {
			slog.Info("stats exported", "path", path)
		}
	}

	fmt.Printf("Run stopped at %s m after %s ticks.\n",
		humanize.CommafWithDigits(final.State.HeightM, 1),
		humanize.Comma(int64(final.State.Ticks)))
}
