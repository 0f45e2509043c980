// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/decomp-console/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete decomp configuration.
type Config struct {
	Console   ConsoleConfig   `toml:"console"`
	Workspace WorkspaceConfig `toml:"workspace"`
	Logging   LoggingConfig   `toml:"logging"`
	Journal   JournalConfig   `toml:"journal"`
}

// ConsoleConfig controls the interactive session.
type ConsoleConfig struct {
	// Prompt is shown for interactive input
	Prompt string `toml:"prompt"`
	// InitPrompt is shown while the -i script runs
	InitPrompt string `toml:"init_prompt"`
	// HistoryFile persists line-editor history (empty = disabled)
	HistoryFile string `toml:"history_file"`
	// HistoryLimit caps in-memory history entries
	HistoryLimit int `toml:"history_limit"`
	// Color is "auto", "always" or "never"
	Color string `toml:"color"`
}

// WorkspaceConfig controls workspace construction.
type WorkspaceConfig struct {
	// ExperimentalRules is an optional rules document applied on every load
	ExperimentalRules string `toml:"experimental_rules"`
	// SearchPaths are appended after the discovered processor directory
	SearchPaths []string `toml:"search_paths"`
}

// LoggingConfig controls diagnostic logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level"`
	// File receives JSON log lines (empty = stderr only)
	File string `toml:"file"`
}

// JournalConfig controls the persistent command journal.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultPrompt       = "[decomp]> "
	DefaultInitPrompt   = "init> "
	DefaultHistoryLimit = 1000
	DefaultLogLevel     = "warn"
)

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Console: ConsoleConfig{
			Prompt:       DefaultPrompt,
			InitPrompt:   DefaultInitPrompt,
			HistoryLimit: DefaultHistoryLimit,
			Color:        "auto",
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
	if dir, err := ConfigDir(); err == nil {
		cfg.Console.HistoryFile = filepath.Join(dir, "history")
		cfg.Journal.Path = filepath.Join(dir, "journal.db")
	}
	return cfg
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the decomp configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".decomp"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.decomp/config.toml when present and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific TOML file.
// Keys missing from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg.ApplyEnvOverrides()
	cfg.Workspace.ExperimentalRules = expandHome(cfg.Workspace.ExperimentalRules)
	cfg.Console.HistoryFile = expandHome(cfg.Console.HistoryFile)
	cfg.Journal.Path = expandHome(cfg.Journal.Path)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path.
// RELIABILITY: Atomic write with fsync prevents a torn config on crash
func SaveTOML(cfg *Config, path string) error {
	return util.WriteFileAtomic(path, 0600, func(w io.Writer) error {
		fmt.Fprintln(w, "# decomp configuration file")
		fmt.Fprintln(w, "# Generated by decomp - edit with care")
		fmt.Fprintln(w)

		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return nil
	})
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

var (
	validColors    = []string{"auto", "always", "never"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Console.Prompt == "" {
		errs = append(errs, ValidationError{"console.prompt", "must not be empty"})
	}
	if c.Console.InitPrompt == "" {
		errs = append(errs, ValidationError{"console.init_prompt", "must not be empty"})
	}
	if c.Console.HistoryLimit < 0 {
		errs = append(errs, ValidationError{"console.history_limit", "must not be negative"})
	}
	if !contains(validColors, c.Console.Color) {
		errs = append(errs, ValidationError{"console.color",
			fmt.Sprintf("invalid value %q (expected one of: %s)", c.Console.Color, strings.Join(validColors, ", "))})
	}
	if !contains(validLogLevels, c.Logging.Level) {
		errs = append(errs, ValidationError{"logging.level",
			fmt.Sprintf("invalid value %q (expected one of: %s)", c.Logging.Level, strings.Join(validLogLevels, ", "))})
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, ValidationError{"journal.path", "required when the journal is enabled"})
	}
	for i, p := range c.Workspace.SearchPaths {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, ValidationError{fmt.Sprintf("workspace.search_paths[%d]", i), "must not be empty"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - DECOMP_PROMPT: overrides console.prompt
//   - DECOMP_LOG_LEVEL: overrides logging.level
//   - DECOMP_EXPERIMENTAL_RULES: overrides workspace.experimental_rules
//   - DECOMP_JOURNAL: "1"/"true" enables the journal, "0"/"false" disables it
func (c *Config) ApplyEnvOverrides() {
	if prompt := os.Getenv("DECOMP_PROMPT"); prompt != "" {
		c.Console.Prompt = prompt
	}
	if level := os.Getenv("DECOMP_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if rules := os.Getenv("DECOMP_EXPERIMENTAL_RULES"); rules != "" {
		c.Workspace.ExperimentalRules = rules
	}
	if journal := os.Getenv("DECOMP_JOURNAL"); journal != "" {
		if enabled, err := parseBool(journal); err == nil {
			c.Journal.Enabled = enabled
		}
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.New("not a boolean: " + s)
	}
	return b, nil
}
