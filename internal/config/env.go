package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override the sync section.
const (
	EnvServerURL = "PLATFORMER_SERVER_URL"
	EnvToken     = "PLATFORMER_TOKEN"
	EnvTopic     = "PLATFORMER_TOPIC"
)

// LoadEnvFile reads KEY=value pairs from path into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides sync settings with non-empty environment variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvServerURL); v != "" {
		cfg.Sync.ServerURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Sync.Token = v
	}
	if v := os.Getenv(EnvTopic); v != "" {
		cfg.Sync.Topic = v
	}
}
