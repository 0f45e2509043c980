// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arch

import (
	"io"

	"github.com/beevik/etree"

	"github.com/jeranaias/decomp-console/internal/workspace"
)

// Format tags.
const (
	FormatXML = "xml"
	FormatELF = "elf"
	FormatRaw = "raw"
)

// capability is the workspace.Capability shared by every image format.
type capability struct {
	name      string
	paths     *workspace.SearchPaths
	matchFile func(path string) bool
	load      loader
}

func (c *capability) Name() string {
	return c.name
}

func (c *capability) MatchesFile(path string) bool {
	return c.matchFile(path)
}

func (c *capability) MatchesDocument(root *etree.Element) bool {
	return root != nil && root.Tag == savefileTag(c.name)
}

func (c *capability) Build(filename, target string, out io.Writer) workspace.Workspace {
	if out == nil {
		out = io.Discard
	}
	return &Architecture{
		format:   c.name,
		filename: filename,
		target:   target,
		out:      out,
		paths:    c.paths,
		load:     c.load,
		symbols:  make(map[string][]Symbol),
	}
}

// NewXMLCapability recognizes <binaryimage> documents.
func NewXMLCapability(paths *workspace.SearchPaths) workspace.Capability {
	return &capability{name: FormatXML, paths: paths, matchFile: isBinaryImageXML, load: loadXMLImage}
}

// NewELFCapability recognizes ELF files by their magic number.
func NewELFCapability(paths *workspace.SearchPaths) workspace.Capability {
	return &capability{name: FormatELF, paths: paths, matchFile: isELF, load: loadELFImage}
}

// NewRawCapability accepts any regular file. Register it last.
func NewRawCapability(paths *workspace.SearchPaths) workspace.Capability {
	return &capability{name: FormatRaw, paths: paths, matchFile: isRegularFile, load: loadRawImage}
}

// Capabilities returns every format in probe order.
func Capabilities(paths *workspace.SearchPaths) []workspace.Capability {
	return []workspace.Capability{
		NewXMLCapability(paths),
		NewELFCapability(paths),
		NewRawCapability(paths),
	}
}

func savefileTag(format string) string {
	return format + "_savefile"
}
