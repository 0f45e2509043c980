// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"io"

	"github.com/jeranaias/decomp-console/internal/docstore"
)

// Workspace is a live analysis configuration.
//
// Build only allocates. Init (after load) or Restore (after restore) does the
// real work and may fail with a *docstore.Error or a *LowLevelError; the
// Controller discards the workspace in that case.
type Workspace interface {
	// Init finishes construction from the image named at build time.
	Init(store *docstore.Store) error

	// Restore rebuilds the configuration from a saved document registered
	// in store.
	Restore(store *docstore.Store) error

	// Save writes the configuration as a savefile document.
	Save(w io.Writer) error

	// ReadLoaderSymbols publishes the symbols found by the image loader
	// under the given namespace.
	ReadLoaderSymbols(namespace string) error

	// Description is a one-line summary for the console.
	Description() string
}

// destroy releases a workspace that is being discarded.
func destroy(ws Workspace) {
	if c, ok := ws.(io.Closer); ok {
		c.Close()
	}
}
