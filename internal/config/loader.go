package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is read when no config path is given and the file exists.
const DefaultPath = "./config.yaml"

// Load reads configuration from the file named by CONFIG_PATH, falling back
// to DefaultPath, overlaid with environment variables.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_PATH"))
}

// LoadFile reads configuration from path overlaid with environment variables.
// An empty path tries DefaultPath and silently falls back to ENV + defaults
// when it is absent; a non-empty path must exist.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	switch {
	case path != "":
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	case fileExists(DefaultPath):
		if err := cleanenv.ReadConfig(DefaultPath, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", DefaultPath, err)
		}
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
