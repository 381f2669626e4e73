// Package export writes run artifacts for outside analysis: the sample
// history as CSV and a small statistics summary as JSON. Files are
// named by run ID.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/talgya/ascent/internal/clock"
)

// WriteHistory writes the full history to <dir>/<runID>.csv and returns
// the file path.
func WriteHistory(dir string, runID uuid.UUID, history []clock.Record) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, runID.String()+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating history csv: %w", err)
	}
	defer f.Close()

	if err := gocsv.Marshal(history, f); err != nil {
		return "", fmt.Errorf("writing history csv: %w", err)
	}
	return path, nil
}

// WriteStats writes the run summary to <dir>/<runID>-stats.json and
// returns the file path.
func WriteStats(dir string, runID uuid.UUID, stats RunStats) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, runID.String()+"-stats.json")
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling stats: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing stats: %w", err)
	}
	return path, nil
}
