// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands maps console input to executable commands.
//
// Commands are registered under one or more names, and a name may span
// several words ("load file", "openfile append"). Lookup accepts any
// unambiguous prefix of each word, so "res x.xml" runs restore.
//
// # Key Types
//
//   - Registry: command table with multi-word, prefix-tolerant lookup
//   - Command: a named handler with usage text and argument hints
//   - AmbiguousError: input matching more than one command
//   - Completer: tab completion for command words and file arguments
//
// # Usage
//
//	reg := commands.NewRegistry()
//	reg.Register(loadCmd, "load")
//	reg.Register(loadCmd, "load", "file")
//
//	cmd, args, err := reg.Resolve(commands.Tokenize("lo file img.bin"))
//	// cmd == loadCmd, args == ["img.bin"]
package commands
