// Package config provides YAML-based application configuration with an
// embedded default and a WINGO_* environment overlay.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Config is the whole application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Content ContentConfig `yaml:"content"`
	Log     LogConfig     `yaml:"log"`
	Game    GameConfig    `yaml:"game"`
	SSH     SSHConfig     `yaml:"ssh"`
	Sim     SimConfig     `yaml:"sim"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string `yaml:"backend" env:"STORAGE_BACKEND"` // "memory", "file" or "sqlite"
	Path    string `yaml:"path" env:"STORAGE_PATH"`
}

// ContentConfig points at optional content overrides.
type ContentConfig struct {
	Dir string `yaml:"dir" env:"CONTENT_DIR"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Timestamps bool   `yaml:"timestamps" env:"LOG_TIMESTAMPS"`
}

// ParsedLevel returns the configured level, defaulting to info.
func (c LogConfig) ParsedLevel() (log.Level, error) {
	if c.Level == "" {
		return log.InfoLevel, nil
	}
	return log.ParseLevel(c.Level)
}

// GameConfig holds the defaults for new runs.
type GameConfig struct {
	Biome            string        `yaml:"biome" env:"BIOME"`
	Difficulty       string        `yaml:"difficulty" env:"DIFFICULTY"`
	AutoplayInterval time.Duration `yaml:"autoplay_interval" env:"AUTOPLAY_INTERVAL"`
}

// SSHConfig configures the serve command.
type SSHConfig struct {
	Address     string        `yaml:"address" env:"SSH_ADDRESS"`
	HostKeyPath string        `yaml:"host_key_path" env:"SSH_HOST_KEY_PATH"`
	DataDir     string        `yaml:"data_dir" env:"SSH_DATA_DIR"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"SSH_IDLE_TIMEOUT"`
	MaxTimeout  time.Duration `yaml:"max_timeout" env:"SSH_MAX_TIMEOUT"`
}

// SimConfig holds the simulate command defaults.
type SimConfig struct {
	Runs       int    `yaml:"runs" env:"SIM_RUNS"`
	Workers    int    `yaml:"workers" env:"SIM_WORKERS"`
	Difficulty string `yaml:"difficulty" env:"SIM_DIFFICULTY"`
	MaxSteps   int    `yaml:"max_steps" env:"SIM_MAX_STEPS"`
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Storage.Backend == "" {
		errs = append(errs, errors.New("storage.backend is required"))
	}
	if c.Storage.Backend != "memory" && c.Storage.Path == "" {
		errs = append(errs, fmt.Errorf("storage.path is required for backend %q", c.Storage.Backend))
	}
	if _, err := c.Log.ParsedLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Game.AutoplayInterval < 0 {
		errs = append(errs, errors.New("game.autoplay_interval must not be negative"))
	}
	if c.Sim.Runs < 0 || c.Sim.Workers < 0 || c.Sim.MaxSteps < 0 {
		errs = append(errs, errors.New("sim values must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
