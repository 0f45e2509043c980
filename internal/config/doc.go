// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves the decomp console configuration.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ConsoleConfig: Prompts, history and colour
//   - WorkspaceConfig: Experimental rules and extra search paths
//   - LoggingConfig / JournalConfig: Diagnostics and the command journal
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DECOMP_*)
//   - ~/.decomp/config.toml, or the file given with --config
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	prompt := cfg.Console.Prompt
package config
