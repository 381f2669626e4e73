// Package persistence stores completed and in-progress runs in SQLite.
// It is strictly a collaborator: it consumes clock snapshots and never
// feeds anything back into the simulation.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/ascent/internal/chat"
	"github.com/talgya/ascent/internal/clock"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		ended_at TEXT,
		speed REAL NOT NULL,
		elapsed_s REAL NOT NULL,
		height_m REAL NOT NULL,
		dead INTEGER NOT NULL,
		cause TEXT NOT NULL,
		detail TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		run_id TEXT NOT NULL,
		t_s REAL NOT NULL,
		height_m REAL NOT NULL,
		temperature_c REAL NOT NULL,
		pressure_atm REAL NOT NULL,
		oxygen_pp_atm REAL NOT NULL,
		blood_oxygen_pct REAL NOT NULL,
		body_temp_c REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		persona TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		t_s REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id, t_s);
	CREATE INDEX IF NOT EXISTS idx_chat_run ON chat_messages(run_id, persona);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun writes the run row and replaces its records with the current
// history (full replace, matching the bounded in-memory window).
func (db *DB) SaveRun(runID uuid.UUID, snap clock.Snapshot, history []clock.Record, startedAt time.Time) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var endedAt any
	if snap.State.Terminated {
		endedAt = time.Now().UTC().Format(time.RFC3339)
	}
	detail := snap.Verdict.Detail[snap.Verdict.Cause]

	if _, err := tx.Exec(`INSERT OR REPLACE INTO runs
		(id, started_at, ended_at, speed, elapsed_s, height_m, dead, cause, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID.String(), startedAt.UTC().Format(time.RFC3339), endedAt,
		snap.State.Speed, snap.State.ElapsedS, snap.State.HeightM,
		snap.Verdict.Dead, snap.Verdict.Cause.String(), detail,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM records WHERE run_id = ?", runID.String()); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO records
		(run_id, t_s, height_m, temperature_c, pressure_atm, oxygen_pp_atm, blood_oxygen_pct, body_temp_c)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range history {
		if _, err := stmt.Exec(runID.String(), r.ElapsedS, r.HeightM, r.TemperatureC,
			r.PressureAtm, r.OxygenPPAtm, r.BloodOxygenPct, r.BodyTempC); err != nil {
			return fmt.Errorf("insert record t=%v: %w", r.ElapsedS, err)
		}
	}

	return tx.Commit()
}

// LoadHistory returns a run's stored records in time order.
func (db *DB) LoadHistory(runID uuid.UUID) ([]clock.Record, error) {
	var out []clock.Record
	err := db.conn.Select(&out, `SELECT t_s, height_m, temperature_c, pressure_atm,
		oxygen_pp_atm, blood_oxygen_pct, body_temp_c
		FROM records WHERE run_id = ? ORDER BY t_s`, runID.String())
	return out, err
}

// SaveChatMessage appends one chat turn for a run.
func (db *DB) SaveChatMessage(runID uuid.UUID, persona chat.Persona, msg chat.Message, elapsedS float64) error {
	_, err := db.conn.Exec(
		"INSERT INTO chat_messages (run_id, persona, role, content, t_s) VALUES (?, ?, ?, ?, ?)",
		runID.String(), persona.String(), msg.Role, msg.Content, elapsedS,
	)
	return err
}

// LoadChat returns a persona's stored transcript for a run.
func (db *DB) LoadChat(runID uuid.UUID, persona chat.Persona) ([]chat.Message, error) {
	type row struct {
		Role    string `db:"role"`
		Content string `db:"content"`
	}
	var rows []row
	err := db.conn.Select(&rows,
		"SELECT role, content FROM chat_messages WHERE run_id = ? AND persona = ? ORDER BY id",
		runID.String(), persona.String())
	if err != nil {
		return nil, err
	}
	out := make([]chat.Message, len(rows))
	for i, r := range rows {
		out[i] = chat.Message{Role: r.Role, Content: r.Content}
	}
	return out, nil
}

// SetMeta stores a key/value pair.
func (db *DB) SetMeta(key, value string) error {
	_, err := db.conn.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, value)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// Autosaver returns an OnTick callback that persists the run every
// `every` ticks and on termination. Failures are logged and otherwise
// ignored: storage trouble must never disturb the run itself.
func (db *DB) Autosaver(runID uuid.UUID, c *clock.Clock, startedAt time.Time, every uint64) func(clock.Snapshot) {
	var last uint64
	var savedFinal bool
	return func(snap clock.Snapshot) {
		if snap.State.Terminated {
			if savedFinal {
				return
			}
			savedFinal = true
		} else if snap.State.Ticks == 0 || snap.State.Ticks-last < every {
			return
		}
		last = snap.State.Ticks
		if err := db.SaveRun(runID, snap, c.History(), startedAt); err != nil {
			slog.Error("autosave failed", "error", err, "tick", snap.State.Ticks)
		}
	}
}
