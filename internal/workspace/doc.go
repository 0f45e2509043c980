// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workspace owns the lifecycle of the console's single workspace.
//
// A workspace is the live analysis configuration built from an image file
// (load) or from a saved document (restore), and written back out by save.
// The Controller guarantees that at most one workspace exists and that no
// caller ever sees one whose construction did not finish.
//
// # Key Types
//
//   - Workspace: the contract a live analysis configuration fulfils
//   - Capability: a format handler that recognizes input and builds a Workspace
//   - Registry: ordered, first-match-wins set of capabilities
//   - SearchPaths: extra directories searched for format resources
//   - Controller: load, save, restore and addpath with rollback semantics
//
// # Failure Policy
//
// A failed load is soft: the message is written to the output sink, the
// workspace is discarded and Load returns nil. A failed restore is hard: the
// failure comes back as an *ExecutionError. Missing arguments are reported
// as *ParseError.
package workspace
