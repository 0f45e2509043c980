// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console runs the decomp read-eval loop.
//
// A Status reads command lines from a stack of script files, falling back
// to interactive input when the stack is empty, and dispatches each line
// through a commands.Registry. Command failures are reported to the output
// sink as parse or execution errors. With error-is-done set, the first
// failure ends the session in error; otherwise the session moves on to the
// next line of the same source.
//
// # Key Types
//
//   - Status: Session state (output sink, script stack, error flags)
//   - LineReader: Interactive input (liner on a TTY, a scanner otherwise)
//   - Journal: Optional persistent command log
//
// # Usage
//
//	reg := commands.NewRegistry()
//	s := console.New(console.Options{Registry: reg, Reader: reader, Output: os.Stdout})
//	s.RegisterBuiltins()
//	console.RegisterLifecycle(reg, ctl, s.Writer())
//	s.MainLoop(ctx)
//	os.Exit(s.ExitCode())
package console
