package importer

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds import settings.
type Config struct {
	Dir    string `yaml:"dir"     env:"IMPORT_DIR"     env-default:"./analyses"`
	DryRun bool   `yaml:"dry_run" env:"IMPORT_DRY_RUN"`
	// Rebuild runs a full aggregate rebuild after a successful import.
	Rebuild bool `yaml:"rebuild" env:"IMPORT_REBUILD"`
}

// LoadConfig reads config from YAML file or environment variables.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("import config: file %s not found", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("import config: %w", err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("import config: read env: %w", err)
	}
	return &cfg, nil
}
