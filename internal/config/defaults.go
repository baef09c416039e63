package config

import (
	_ "embed"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/wingo.yaml
var defaultYAML []byte

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte { return defaultYAML }

// Default returns the embedded default configuration.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return fallback() // Fallback to hardcoded if embed fails
	}
	return cfg
}

func fallback() Config {
	return Config{
		Storage: StorageConfig{Backend: "sqlite", Path: "~/.wingo/wingo.db"},
		Log:     LogConfig{Level: "info", Timestamps: true},
		Game: GameConfig{
			Biome:            "crypt",
			Difficulty:       "less-easy",
			AutoplayInterval: 400 * time.Millisecond,
		},
		SSH: SSHConfig{
			Address:     ":2323",
			HostKeyPath: "~/.wingo/ssh/host_ed25519",
			DataDir:     "~/.wingo/players",
			IdleTimeout: 10 * time.Minute,
			MaxTimeout:  2 * time.Hour,
		},
		Sim: SimConfig{Runs: 200, Difficulty: "less-easy", MaxSteps: 5000},
	}
}
