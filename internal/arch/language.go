// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arch

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/jeranaias/decomp-console/internal/docstore"
	"github.com/jeranaias/decomp-console/internal/workspace"
)

const (
	ldefsSuffix = ".ldefs"
	ldefsRoot   = "language_definitions"
)

// Language describes a processor variant from a language definitions file.
type Language struct {
	ID          string
	Processor   string
	Endian      string
	Size        int
	Description string
}

// findLanguage scans every *.ldefs document under paths for id.
// Malformed definition files fail the lookup with their document error.
func findLanguage(store *docstore.Store, paths *workspace.SearchPaths, id string) (*Language, error) {
	for _, file := range paths.MatchSuffix(ldefsSuffix) {
		doc, err := store.OpenDocument(file)
		if err != nil {
			return nil, err
		}
		if doc.RootTag() != ldefsRoot {
			continue
		}
		for _, el := range doc.Root().SelectElements("language") {
			if el.SelectAttrValue("id", "") == id {
				return languageFromElement(el), nil
			}
		}
	}
	return nil, workspace.LowLevelf("No sleigh specification for %s", id)
}

func languageFromElement(el *etree.Element) *Language {
	lang := &Language{
		ID:        el.SelectAttrValue("id", ""),
		Processor: el.SelectAttrValue("processor", ""),
		Endian:    el.SelectAttrValue("endian", ""),
	}
	lang.Size, _ = strconv.Atoi(el.SelectAttrValue("size", "0"))
	if d := el.SelectElement("description"); d != nil {
		lang.Description = d.Text()
	}
	return lang
}

func (l *Language) element() *etree.Element {
	el := etree.NewElement("language")
	el.CreateAttr("id", l.ID)
	el.CreateAttr("processor", l.Processor)
	el.CreateAttr("endian", l.Endian)
	el.CreateAttr("size", strconv.Itoa(l.Size))
	if l.Description != "" {
		el.CreateElement("description").SetText(l.Description)
	}
	return el
}
