// Package config loads the odgs command configuration from a YAML file, with
// environment overrides applied on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odgs/odgs/internal/logging"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "odgs.yaml"

const (
	EnvLibDir     = "ODGS_LIB_DIR"
	EnvExportPath = "ODGS_EXPORT_PATH"
)

// Config holds all odgs command configuration.
type Config struct {
	// LibDir, when set, replaces the embedded documents with the JSON files
	// found in this directory.
	LibDir string `yaml:"lib_dir"`

	Log    logging.Config `yaml:"log"`
	Export ExportConfig   `yaml:"export"`
}

// ExportConfig configures the single-file bundle export.
type ExportConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:    logging.DefaultConfig(),
		Export: ExportConfig{Path: "odgs-bundle.db"},
	}
}

// Load reads path and applies environment overrides. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from ODGS_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvLibDir)); v != "" {
		c.LibDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportPath)); v != "" {
		c.Export.Path = v
	}
	c.Log.ApplyEnv()
}

// Validate checks the configuration for values the command cannot use.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if c.LibDir != "" {
		info, err := os.Stat(c.LibDir)
		if err != nil {
			return fmt.Errorf("lib_dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("lib_dir: %s is not a directory", c.LibDir)
		}
	}
	if c.Export.Path == "" {
		return fmt.Errorf("export.path must not be empty")
	}
	return nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
