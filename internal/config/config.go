// Package config provides configuration loading for the ascent
// simulator.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/ascent/internal/clock"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulator configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	API        APIConfig        `yaml:"api"`
	Chat       ChatConfig       `yaml:"chat"`
	Storage    StorageConfig    `yaml:"storage"`
	Export     ExportConfig     `yaml:"export"`
	Sky        SkyConfig        `yaml:"sky"`
}

// SimulationConfig controls the clock and its driver.
type SimulationConfig struct {
	TickIntervalMS int     `yaml:"tick_interval_ms"` // driver cadence
	Speed          float64 `yaml:"speed"`            // initial multiplier, [50,150]
	HistoryCap     int     `yaml:"history_cap"`      // retained samples
	Autostart      bool    `yaml:"autostart"`        // start the run immediately
}

// TickInterval returns the driver cadence as a duration.
func (s SimulationConfig) TickInterval() time.Duration {
	return time.Duration(s.TickIntervalMS) * time.Millisecond
}

// APIConfig controls the HTTP surface.
type APIConfig struct {
	Port        int    `yaml:"port"`
	AdminKeyEnv string `yaml:"admin_key_env"` // env var holding the bearer token
}

// ChatConfig controls the persona chat backend.
type ChatConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	MaxPerMin   int     `yaml:"max_per_min"` // outbound completion rate limit
}

// StorageConfig controls run persistence.
type StorageConfig struct {
	DBPath string `yaml:"db_path"` // empty disables persistence
}

// ExportConfig controls end-of-run CSV export.
type ExportConfig struct {
	Dir string `yaml:"dir"` // empty disables export
}

// SkyConfig seeds the ambience noise field.
type SkyConfig struct {
	Seed int64 `yaml:"seed"`
}

// Load reads configuration from a YAML file merged over the embedded
// defaults. An empty path uses defaults only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Simulation.Speed < clock.MinSpeed || c.Simulation.Speed > clock.MaxSpeed {
		return fmt.Errorf("simulation.speed %.1f outside [%.0f, %.0f]",
			c.Simulation.Speed, clock.MinSpeed, clock.MaxSpeed)
	}
	if c.Simulation.TickIntervalMS <= 0 {
		return fmt.Errorf("simulation.tick_interval_ms must be positive, got %d", c.Simulation.TickIntervalMS)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	return nil
}
