// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli is the decomp process entry point: flag parsing, startup
// discovery of processor definitions, and assembly of the console session.
//
// Usage:
//
//	decomp [-i script] [-s path]... [--config file] [-v]
//
// With -i the script runs before interactive input, and the first command
// error ends the process with exit status 1.
package cli
