package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration from defaults, then the config file, then
// command-line flags, and validates the result.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns ./config.yaml or the one in ConfigDir, whichever
// exists first.
func findConfigFile() string {
	for _, path := range []string{"config.yaml", filepath.Join(ConfigDir(), "config.yaml")} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory for gx2view.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "gx2view")
}

// Validate checks values that would make the frame loop fail.
func (c *Config) Validate() error {
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.Display.DRCWidth <= 0 || c.Display.DRCHeight <= 0 {
		return fmt.Errorf("invalid DRC size %dx%d", c.Display.DRCWidth, c.Display.DRCHeight)
	}
	if c.Shader.UniformBufferSize <= 0 {
		return fmt.Errorf("invalid uniform buffer size %d", c.Shader.UniformBufferSize)
	}
	if c.Memory.HeapSizeMB <= 0 {
		return fmt.Errorf("invalid heap size %d MB", c.Memory.HeapSizeMB)
	}
	if c.Run.Frames < 0 {
		return fmt.Errorf("invalid frame count %d", c.Run.Frames)
	}
	return nil
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
