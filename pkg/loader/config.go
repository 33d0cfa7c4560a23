package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config controls where tracks are found and how much work a load does.
type Config struct {
	Roots         []string `yaml:"roots"`
	Extensions    []string `yaml:"extensions"`
	Validate      bool     `yaml:"validate"`
	BuildGeometry bool     `yaml:"build_geometry"`
	AllowWarnings bool     `yaml:"allow_warnings"`
}

// DefaultConfig searches the working directory for plain and
// zstd-compressed track files, and validates and places every track.
func DefaultConfig() Config {
	return Config{
		Roots:         []string{"."},
		Extensions:    []string{".trk", ".trk.zst"},
		Validate:      true,
		BuildGeometry: true,
		AllowWarnings: true,
	}
}

// LoadConfig reads a YAML config file. Keys the file leaves out keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config YAML: %w", err)
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultConfig().Extensions
	}
	return cfg, nil
}
