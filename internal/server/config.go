package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the HTTP surface settings. The pipeline itself takes no
// configuration beyond its input collections.
type Config struct {
	Addr           string `yaml:"addr"`
	MaxUploadMB    int64  `yaml:"max_upload_mb"`
	PreferredTable string `yaml:"preferred_table"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:18750",
		MaxUploadMB:    64,
		PreferredTable: "main",
	}
}

// LoadConfig reads a yaml config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = DefaultConfig().MaxUploadMB
	}
	return cfg, nil
}
