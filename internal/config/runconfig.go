package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ukydev/geo-payloads/internal/models"
)

var validate = validator.New()

// LoadRunConfig reads and validates a run configuration file. JSON and YAML
// files are both accepted. A missing timeMultiplier defaults to 1.
func LoadRunConfig(path string) (models.RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.RunConfig{}, fmt.Errorf("read run config: %w", err)
	}
	return ParseRunConfig(data)
}

// ParseRunConfig parses and validates a run configuration document.
func ParseRunConfig(data []byte) (models.RunConfig, error) {
	var cfg models.RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return models.RunConfig{}, fmt.Errorf("parse run config: %w", err)
	}
	if cfg.TimeMultiplier == 0 {
		cfg.TimeMultiplier = 1
	}
	if err := validate.Struct(cfg); err != nil {
		return models.RunConfig{}, fmt.Errorf("invalid run config: %w", err)
	}
	return cfg, nil
}
