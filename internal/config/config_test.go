// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points HOME at a scratch directory and clears DECOMP_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"DECOMP_PROMPT", "DECOMP_LOG_LEVEL", "DECOMP_EXPERIMENTAL_RULES", "DECOMP_JOURNAL"} {
		t.Setenv(key, "")
	}
	return home
}

func TestDefault(t *testing.T) {
	home := isolate(t)
	cfg := Default()

	if cfg.Console.Prompt != "[decomp]> " {
		t.Errorf("Prompt = %q, want %q", cfg.Console.Prompt, "[decomp]> ")
	}
	if cfg.Console.InitPrompt != "init> " {
		t.Errorf("InitPrompt = %q, want %q", cfg.Console.InitPrompt, "init> ")
	}
	if want := filepath.Join(home, ".decomp", "journal.db"); cfg.Journal.Path != want {
		t.Errorf("Journal.Path = %q, want %q", cfg.Journal.Path, want)
	}
	if cfg.Journal.Enabled {
		t.Error("journal should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, DefaultLogLevel)
	}
}

func TestLoadFromPath(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[console]
prompt = "ghidra> "
history_limit = 50

[workspace]
experimental_rules = "~/rules.xml"
search_paths = ["/opt/sleigh", "/usr/share/sleigh"]

[journal]
enabled = true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}

	if cfg.Console.Prompt != "ghidra> " {
		t.Errorf("Prompt = %q", cfg.Console.Prompt)
	}
	if cfg.Console.InitPrompt != DefaultInitPrompt {
		t.Errorf("InitPrompt = %q, missing keys should keep defaults", cfg.Console.InitPrompt)
	}
	if cfg.Console.HistoryLimit != 50 {
		t.Errorf("HistoryLimit = %d, want 50", cfg.Console.HistoryLimit)
	}
	if want := filepath.Join(home, "rules.xml"); cfg.Workspace.ExperimentalRules != want {
		t.Errorf("ExperimentalRules = %q, want %q", cfg.Workspace.ExperimentalRules, want)
	}
	if len(cfg.Workspace.SearchPaths) != 2 {
		t.Errorf("SearchPaths = %v", cfg.Workspace.SearchPaths)
	}
	if !cfg.Journal.Enabled || cfg.Journal.Path == "" {
		t.Errorf("Journal = %+v, want enabled with default path", cfg.Journal)
	}
}

func TestLoadFromPathErrors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed", "[console\nprompt =", "failed to load config"},
		{"unknown key", "[console]\nprmopt = \"x\"\n", "unknown config keys"},
		{"invalid color", "[console]\ncolor = \"purple\"\n", "console.color"},
		{"invalid level", "[logging]\nlevel = \"loud\"\n", "logging.level"},
		{"negative history", "[console]\nhistory_limit = -1\n", "console.history_limit"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tc.name, " ", "_")+".toml")
			if err := os.WriteFile(path, []byte(tc.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFromPath(path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q should mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DECOMP_PROMPT", "re> ")
	t.Setenv("DECOMP_LOG_LEVEL", "DEBUG")
	t.Setenv("DECOMP_EXPERIMENTAL_RULES", "/tmp/rules.xml")
	t.Setenv("DECOMP_JOURNAL", "yes")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Console.Prompt != "re> " {
		t.Errorf("Prompt = %q", cfg.Console.Prompt)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	if cfg.Workspace.ExperimentalRules != "/tmp/rules.xml" {
		t.Errorf("ExperimentalRules = %q", cfg.Workspace.ExperimentalRules)
	}
	if !cfg.Journal.Enabled {
		t.Error("DECOMP_JOURNAL=yes should enable the journal")
	}

	t.Setenv("DECOMP_JOURNAL", "maybe")
	cfg.ApplyEnvOverrides()
	if !cfg.Journal.Enabled {
		t.Error("an unparsable DECOMP_JOURNAL should leave the setting alone")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Console: ConsoleConfig{Color: "auto"},
		Logging: LoggingConfig{Level: "warn"},
		Journal: JournalConfig{Enabled: true},
	}

	err := cfg.Validate()
	var errs ValidateErrors
	if !errors.As(err, &errs) {
		t.Fatalf("Validate() = %v, want ValidateErrors", err)
	}
	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, want := range []string{"console.prompt", "console.init_prompt", "journal.path"} {
		if !fields[want] {
			t.Errorf("missing validation error for %s in %v", want, errs)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	home := isolate(t)

	cfg := Default()
	cfg.Console.Prompt = "saved> "
	cfg.Workspace.SearchPaths = []string{"/opt/sleigh"}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	path := filepath.Join(home, ".decomp", "config.toml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config permissions = %o, want 600", perm)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Console.Prompt != "saved> " {
		t.Errorf("Prompt = %q after round trip", loaded.Console.Prompt)
	}
	if len(loaded.Workspace.SearchPaths) != 1 || loaded.Workspace.SearchPaths[0] != "/opt/sleigh" {
		t.Errorf("SearchPaths = %v after round trip", loaded.Workspace.SearchPaths)
	}
}
