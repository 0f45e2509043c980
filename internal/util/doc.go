// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the console packages.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - WriteFileAtomic: same, fed by a writer callback
//
// Text:
//   - PadRight: display-width aware column padding
//   - Truncate: display-width aware truncation with ellipsis
//
// # Usage
//
//	// Never leave a half-written savefile behind
//	err := util.WriteFileAtomic(path, 0644, func(w io.Writer) error {
//	    return ws.Save(w)
//	})
package util
