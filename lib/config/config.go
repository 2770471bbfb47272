// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/prefab/lib/transform"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local editing sessions.
	Development Environment = "development"
	// Staging is for shared pre-production content stores.
	Staging Environment = "staging"
	// Production is for the content store builds are cut from.
	Production Environment = "production"
)

// Config is the configuration for the prefab tools.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Store configures the template and instance database.
	Store StoreConfig `yaml:"store"`

	// Sync configures instance synchronization.
	Sync SyncConfig `yaml:"sync"`

	// Log configures the command logger.
	Log LogConfig `yaml:"log"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths *PathsConfig `yaml:"paths,omitempty"`
	Store *StoreConfig `yaml:"store,omitempty"`
	Sync  *SyncConfig  `yaml:"sync,omitempty"`
	Log   *LogConfig   `yaml:"log,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for prefab data.
	Root string `yaml:"root"`

	// Definitions is the directory holding .jsonc template
	// definitions.
	Definitions string `yaml:"definitions"`
}

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	// Path is the database file.
	// Default: ${PREFAB_ROOT}/prefab.db
	Path string `yaml:"path"`

	// Compression is applied to stored bodies: none, lz4, or zstd.
	// Default: zstd
	Compression string `yaml:"compression"`

	// PoolSize is the number of SQLite connections. Zero picks the
	// pool default.
	PoolSize int `yaml:"pool_size"`
}

// SyncConfig configures drift suppression when instances update.
type SyncConfig struct {
	// PositionTolerance is the largest location change, in world
	// units, treated as round-trip noise.
	// Default: 0.1
	PositionTolerance float64 `yaml:"position_tolerance"`

	// AngleTolerance is the largest per-axis rotation change, in
	// degrees, treated as round-trip noise.
	// Default: 0.5
	AngleTolerance float64 `yaml:"angle_tolerance"`
}

// LogConfig configures the command logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is text, json, or auto (text on a terminal, JSON
	// otherwise).
	// Default: auto
	Format string `yaml:"format"`
}

// Default returns the default configuration, used as a base before
// the config file is loaded.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "prefab")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:        defaultRoot,
			Definitions: filepath.Join(defaultRoot, "definitions"),
		},
		Store: StoreConfig{
			Path:        filepath.Join(defaultRoot, "prefab.db"),
			Compression: "zstd",
		},
		Sync: SyncConfig{
			PositionTolerance: transform.DefaultTolerance.Position,
			AngleTolerance:    0.5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the PREFAB_CONFIG environment variable.
// There is no fallback: if PREFAB_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("PREFAB_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("PREFAB_CONFIG environment variable not set; " +
			"set it to the path of your prefab.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, applies the
// section for the configured environment, and expands ${VAR} patterns
// in paths.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production logs are collected, not read on a terminal.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Log: &LogConfig{Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Definitions != "" {
			c.Paths.Definitions = overrides.Paths.Definitions
		}
	}

	if overrides.Store != nil {
		if overrides.Store.Path != "" {
			c.Store.Path = overrides.Store.Path
		}
		if overrides.Store.Compression != "" {
			c.Store.Compression = overrides.Store.Compression
		}
		if overrides.Store.PoolSize != 0 {
			c.Store.PoolSize = overrides.Store.PoolSize
		}
	}

	if overrides.Sync != nil {
		if overrides.Sync.PositionTolerance != 0 {
			c.Sync.PositionTolerance = overrides.Sync.PositionTolerance
		}
		if overrides.Sync.AngleTolerance != 0 {
			c.Sync.AngleTolerance = overrides.Sync.AngleTolerance
		}
	}

	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
		if overrides.Log.Format != "" {
			c.Log.Format = overrides.Log.Format
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"PREFAB_ROOT": c.Paths.Root,
		"HOME":        os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["PREFAB_ROOT"] = c.Paths.Root

	c.Paths.Definitions = expandVars(c.Paths.Definitions, vars)
	c.Store.Path = expandVars(c.Store.Path, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Provided vars first, then the process environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required"))
	}

	compressions := []string{"none", "lz4", "zstd"}
	if !slices.Contains(compressions, c.Store.Compression) {
		errs = append(errs, fmt.Errorf("store.compression must be one of: %v", compressions))
	}

	if c.Store.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("store.pool_size must not be negative"))
	}

	if c.Sync.PositionTolerance < 0 {
		errs = append(errs, fmt.Errorf("sync.position_tolerance must not be negative"))
	}
	if c.Sync.AngleTolerance < 0 || c.Sync.AngleTolerance >= 180 {
		errs = append(errs, fmt.Errorf("sync.angle_tolerance must be in [0, 180) degrees"))
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	formats := []string{"auto", "text", "json"}
	if !slices.Contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Tolerance returns the sync tolerances in the units instance
// synchronization compares with.
func (c *Config) Tolerance() transform.Tolerance {
	return transform.Tolerance{
		Position: c.Sync.PositionTolerance,
		Angle:    c.Sync.AngleTolerance * transform.FullTurn / 360,
	}
}

// LogLevel returns the configured log level. An invalid level (which
// Validate reports) reads as info.
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log.level must be one of: [debug info warn error]")
	}
	return level, nil
}

// EnsurePaths creates the configured directories and the parent of the
// store database.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Definitions,
		filepath.Dir(c.Store.Path),
	}

	for _, path := range paths {
		if path == "" || path == "." {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
