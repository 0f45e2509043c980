// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docstore keeps the structured documents a workspace is built from.
//
// A Store owns the documents opened while a workspace is constructed or
// restored, and a table of registered root elements that the workspace looks
// up by tag name (savefile roots, experimental rules, language definitions).
//
// # Key Types
//
//   - Store: opened documents plus the registered tag table
//   - Document: a parsed document and the path it came from
//   - Error: a structured-document failure (unreadable or malformed input)
//
// # Usage
//
//	store := docstore.NewStore()
//	doc, err := store.OpenDocument("image.xml")
//	if err != nil {
//	    return err
//	}
//	store.RegisterTag(doc.Root())
package docstore
