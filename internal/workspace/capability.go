// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"io"

	"github.com/beevik/etree"

	"github.com/jeranaias/decomp-console/internal/docstore"
)

// =============================================================================
// CAPABILITY
// =============================================================================

// Capability recognizes one image or savefile format and builds workspaces
// for it.
type Capability interface {
	// Name is the format tag, e.g. "xml" or "raw".
	Name() string

	// MatchesFile reports whether the file at path is in this format.
	MatchesFile(path string) bool

	// MatchesDocument reports whether a savefile root belongs to this format.
	MatchesDocument(root *etree.Element) bool

	// Build allocates an uninitialized workspace. It must not fail.
	Build(filename, target string, out io.Writer) Workspace
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry is an ordered set of capabilities. Lookups return the first
// capability that claims the input. Populate it before the session starts;
// it is read-only afterwards.
type Registry struct {
	caps []Capability
}

// NewRegistry returns a registry holding caps in order.
func NewRegistry(caps ...Capability) *Registry {
	r := &Registry{}
	for _, c := range caps {
		r.Register(c)
	}
	return r
}

// Register appends a capability.
func (r *Registry) Register(c Capability) {
	r.caps = append(r.caps, c)
}

// FindByFile returns the first capability recognizing the file, or nil.
func (r *Registry) FindByFile(path string) Capability {
	for _, c := range r.caps {
		if c.MatchesFile(path) {
			return c
		}
	}
	return nil
}

// FindByDocument returns the first capability claiming the document's root
// element, or nil.
func (r *Registry) FindByDocument(doc *docstore.Document) Capability {
	if doc == nil {
		return nil
	}
	root := doc.Root()
	for _, c := range r.caps {
		if c.MatchesDocument(root) {
			return c
		}
	}
	return nil
}

// Names returns the registered format tags in lookup order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.caps))
	for i, c := range r.caps {
		names[i] = c.Name()
	}
	return names
}
