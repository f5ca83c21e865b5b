// Package config provides the configuration surface for the docpulse pipeline.
//
// Configuration is an explicit value object passed into every stage; there is
// no process-global path state. Resolution order: defaults, then an optional
// YAML file, then DOCPULSE_* environment variables.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the paths the pipeline operates on.
type Config struct {
	// EventsDir is the root directory scanned for *.json event files.
	EventsDir string `yaml:"events_dir"`

	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`

	// CheckpointPath is the append-only log of already ingested files.
	CheckpointPath string `yaml:"checkpoint_path"`
}

// Default returns the standalone-execution defaults.
func Default() *Config {
	return &Config{
		EventsDir:      "data/events",
		DBPath:         "analytics.sqlite",
		CheckpointPath: ".checkpoint_ingested_files.txt",
	}
}

// LoadFromFile merges settings from a YAML file over cfg.
// Unset fields in the file leave the existing values untouched.
func LoadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if file.EventsDir != "" {
		cfg.EventsDir = file.EventsDir
	}
	if file.DBPath != "" {
		cfg.DBPath = file.DBPath
	}
	if file.CheckpointPath != "" {
		cfg.CheckpointPath = file.CheckpointPath
	}
	return nil
}

// LoadFromEnv merges DOCPULSE_* environment variables over cfg.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("DOCPULSE_EVENTS_DIR"); v != "" {
		cfg.EventsDir = v
	}
	if v := os.Getenv("DOCPULSE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DOCPULSE_CHECKPOINT_PATH"); v != "" {
		cfg.CheckpointPath = v
	}
}

// Load resolves the effective configuration: defaults, then the optional
// file at path (skipped when path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFromFile(cfg, path); err != nil {
			return nil, err
		}
	}
	LoadFromEnv(cfg)
	return cfg, nil
}

// Validate checks that all required paths are set.
func (c *Config) Validate() error {
	if c.EventsDir == "" {
		return fmt.Errorf("events_dir must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.CheckpointPath == "" {
		return fmt.Errorf("checkpoint_path must not be empty")
	}
	return nil
}
