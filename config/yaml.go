package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FromFile overlays the YAML file at path on top of cfg. Only keys present
// in the file are changed.
func FromFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return errors.Wrap(err, "failed to parse config file")
	}

	return nil
}
