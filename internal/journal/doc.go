// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package journal records executed console commands in a SQLite database.
//
// Every console run gets a session id; each command line is stored with its
// source (interactive or a script name) and outcome. The history built-in
// reads the journal back across sessions.
//
// # Key Types
//
//   - Journal: SQLite-backed command log for one session
//   - Entry: One executed command line
//   - Status: Outcome of a command
//
// # Usage
//
//	j, err := journal.Open("~/.decomp/journal.db")
//	defer j.Close()
//	j.Record(ctx, journal.Entry{Source: "interactive", Line: "load a.bin"})
//	recent, err := j.Recent(ctx, 10)
package journal
