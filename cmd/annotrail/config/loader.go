// loader.go — Configuration loading with priority cascade.
// Priority: defaults < global config < project config < env vars < flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all resolved configuration values.
type Config struct {
	Port     int    `json:"port"`
	Format   string `json:"format"`
	DataDir  string `json:"data_dir"`
	Discover bool   `json:"discover"`
}

// FlagOverrides holds values explicitly set via command-line flags.
// Nil pointer means the flag was not set (so lower-priority values are kept).
type FlagOverrides struct {
	Port     *int
	Format   *string
	DataDir  *string
	Discover *bool
}

// Defaults returns the base configuration with sensible defaults.
// DataDir is left empty here; Load fills it from the home directory so
// config files can still override it.
func Defaults() Config {
	return Config{
		Port:     8917,
		Format:   "human",
		Discover: true,
	}
}

// Load builds the final configuration by applying the priority cascade:
// defaults < global (~/.annotrail/config.json) < project (.annotrail.json) < env vars < flags.
func Load(projectDir string, flags *FlagOverrides) (Config, error) {
	cfg := Defaults()

	home, err := os.UserHomeDir()
	if err == nil {
		cfg.DataDir = filepath.Join(home, ".annotrail", "recordings")
		_ = loadJSONFile(&cfg, filepath.Join(home, ".annotrail", "config.json"))
	}

	if err := loadJSONFile(&cfg, filepath.Join(projectDir, ".annotrail.json")); err != nil {
		return cfg, fmt.Errorf("project config: %w", err)
	}

	loadEnvVars(&cfg)

	if flags != nil {
		applyFlags(&cfg, flags)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadJSONFile reads a JSON config file and merges explicitly-set values into cfg.
func loadJSONFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Missing config file is fine
		}
		return err
	}

	var fileCfg fileConfig
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fileCfg.Port != nil {
		cfg.Port = *fileCfg.Port
	}
	if fileCfg.Format != nil {
		cfg.Format = *fileCfg.Format
	}
	if fileCfg.DataDir != nil {
		cfg.DataDir = *fileCfg.DataDir
	}
	if fileCfg.Discover != nil {
		cfg.Discover = *fileCfg.Discover
	}

	return nil
}

// fileConfig uses pointers to distinguish "not set" from zero values.
type fileConfig struct {
	Port     *int    `json:"port"`
	Format   *string `json:"format"`
	DataDir  *string `json:"data_dir"`
	Discover *bool   `json:"discover"`
}

// loadEnvVars applies environment variable overrides.
func loadEnvVars(cfg *Config) {
	if v := os.Getenv("ANNOTRAIL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("ANNOTRAIL_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("ANNOTRAIL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if os.Getenv("ANNOTRAIL_NO_DISCOVER") == "1" {
		cfg.Discover = false
	}
}

// applyFlags applies command-line flag overrides (highest priority).
func applyFlags(cfg *Config, flags *FlagOverrides) {
	if flags.Port != nil {
		cfg.Port = *flags.Port
	}
	if flags.Format != nil {
		cfg.Format = *flags.Format
	}
	if flags.DataDir != nil {
		cfg.DataDir = *flags.DataDir
	}
	if flags.Discover != nil {
		cfg.Discover = *flags.Discover
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", c.Port)
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Format] {
		return fmt.Errorf("format must be human or json, got %q", c.Format)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}

	return nil
}
