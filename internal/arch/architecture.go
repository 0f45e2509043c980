// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arch

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/beevik/etree"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/jeranaias/decomp-console/internal/docstore"
	"github.com/jeranaias/decomp-console/internal/workspace"
)

// Architecture is the workspace built by every format in this package.
type Architecture struct {
	format   string
	filename string
	target   string
	out      io.Writer
	paths    *workspace.SearchPaths
	load     loader

	lang          *Language
	chunks        []Chunk
	loaderSymbols []Symbol
	symbols       map[string][]Symbol
	digest        []byte
	rules         int
}

var _ workspace.Workspace = (*Architecture)(nil)

// =============================================================================
// ACCESSORS
// =============================================================================

// Format returns the capability tag that built this workspace.
func (a *Architecture) Format() string { return a.format }

// Filename returns the image file name.
func (a *Architecture) Filename() string { return a.filename }

// Target returns the target label.
func (a *Architecture) Target() string { return a.target }

// Language returns the resolved language, or nil for "default".
func (a *Architecture) Language() *Language { return a.lang }

// Chunks returns the load image.
func (a *Architecture) Chunks() []Chunk { return a.chunks }

// LoaderSymbols returns the symbols found by the image loader.
func (a *Architecture) LoaderSymbols() []Symbol { return a.loaderSymbols }

// Symbols returns the symbols published under namespace.
func (a *Architecture) Symbols(namespace string) []Symbol { return a.symbols[namespace] }

// RuleCount returns how many experimental rules were registered at init.
func (a *Architecture) RuleCount() int { return a.rules }

// Digest returns the hex blake3 digest of the load image.
func (a *Architecture) Digest() string { return hex.EncodeToString(a.digest) }

// Size returns the total number of image bytes.
func (a *Architecture) Size() uint64 {
	var n uint64
	for _, c := range a.chunks {
		n += uint64(len(c.Data))
	}
	return n
}

// Description summarizes the workspace on one line.
func (a *Architecture) Description() string {
	desc := fmt.Sprintf("%s image %s (%s), target %s", a.format, a.filename, humanize.Bytes(a.Size()), a.target)
	if a.lang != nil && a.lang.Processor != "" {
		desc += ", processor " + a.lang.Processor
	}
	return desc
}

// =============================================================================
// INIT
// =============================================================================

// Init loads the image and resolves the target language.
func (a *Architecture) Init(store *docstore.Store) error {
	img, err := a.load(a.filename, store)
	if err != nil {
		return err
	}

	switch {
	case a.target != workspace.DefaultTarget && a.target != "":
		lang, err := findLanguage(store, a.paths, a.target)
		if err != nil {
			return err
		}
		a.lang = lang
	case img.targetHint != "":
		// Images that name their processor resolve it when definitions exist
		a.target = img.targetHint
		lang, err := findLanguage(store, a.paths, a.target)
		if err != nil {
			fmt.Fprintf(a.out, "No language definition for %s, using generic processor\n", a.target)
			break
		}
		a.lang = lang
	}

	a.chunks = img.chunks
	a.loaderSymbols = img.symbols
	a.digest = imageDigest(a.chunks)
	if rules := store.Tag(workspace.ExperimentalRulesTag); rules != nil {
		a.rules = len(rules.SelectElements("rule"))
	}
	return nil
}

// ReadLoaderSymbols publishes the loader symbols under namespace.
func (a *Architecture) ReadLoaderSymbols(namespace string) error {
	if namespace == "" {
		return workspace.LowLevelf("Empty symbol namespace")
	}
	syms := append([]Symbol(nil), a.loaderSymbols...)
	sort.SliceStable(syms, func(i, j int) bool { return syms[i].Offset < syms[j].Offset })
	a.symbols[namespace] = syms
	return nil
}

func imageDigest(chunks []Chunk) []byte {
	h := blake3.New()
	var off [8]byte
	for _, c := range chunks {
		binary.BigEndian.PutUint64(off[:], c.Offset)
		h.Write(off[:])
		h.Write(c.Data)
	}
	return h.Sum(nil)
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the workspace as a savefile document.
func (a *Architecture) Save(w io.Writer) error {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("failed to create compressor: %w", err)
	}
	defer enc.Close()

	root := etree.NewElement(savefileTag(a.format))
	root.CreateAttr("name", a.filename)
	root.CreateAttr("target", a.target)
	if a.lang != nil {
		root.AddChild(a.lang.element())
	}

	img := root.CreateElement("loadimage")
	img.CreateAttr("digest", a.Digest())
	for _, c := range a.chunks {
		el := img.CreateElement("chunk")
		el.CreateAttr("offset", formatOffset(c.Offset))
		el.CreateAttr("size", fmt.Sprint(len(c.Data)))
		el.SetText(base64.StdEncoding.EncodeToString(enc.EncodeAll(c.Data, nil)))
	}

	writeSymbols(root.CreateElement("loadersymbols"), "", a.loaderSymbols)
	namespaces := make([]string, 0, len(a.symbols))
	for ns := range a.symbols {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	published := root.CreateElement("symbols")
	for _, ns := range namespaces {
		writeSymbols(published, ns, a.symbols[ns])
	}

	return docstore.Write(w, root)
}

func writeSymbols(parent *etree.Element, namespace string, syms []Symbol) {
	for _, s := range syms {
		el := parent.CreateElement("symbol")
		if namespace != "" {
			el.CreateAttr("namespace", namespace)
		}
		el.CreateAttr("name", s.Name)
		el.CreateAttr("offset", formatOffset(s.Offset))
	}
}

// =============================================================================
// RESTORE
// =============================================================================

// Restore rebuilds the workspace from the savefile registered in store.
func (a *Architecture) Restore(store *docstore.Store) error {
	tag := savefileTag(a.format)
	root := store.Tag(tag)
	if root == nil {
		return docstore.Errorf("missing %s tag", tag)
	}

	a.filename = root.SelectAttrValue("name", "")
	if a.filename == "" {
		return docstore.Errorf("%s is missing the name attribute", tag)
	}
	a.target = root.SelectAttrValue("target", workspace.DefaultTarget)
	if el := root.SelectElement("language"); el != nil {
		a.lang = languageFromElement(el)
	}

	img := root.SelectElement("loadimage")
	if img == nil {
		return docstore.Errorf("%s has no loadimage", tag)
	}
	chunks, err := readChunks(img)
	if err != nil {
		return err
	}
	want := img.SelectAttrValue("digest", "")
	if got := hex.EncodeToString(imageDigest(chunks)); got != want {
		return workspace.LowLevelf("Savefile image digest mismatch")
	}
	a.chunks = chunks
	a.digest = imageDigest(chunks)

	if el := root.SelectElement("loadersymbols"); el != nil {
		syms, err := readSymbols(el)
		if err != nil {
			return err
		}
		a.loaderSymbols = syms
	}
	if el := root.SelectElement("symbols"); el != nil {
		for _, s := range el.SelectElements("symbol") {
			sym, err := readSymbol(s)
			if err != nil {
				return err
			}
			ns := s.SelectAttrValue("namespace", "")
			a.symbols[ns] = append(a.symbols[ns], sym)
		}
	}
	return nil
}

func readChunks(img *etree.Element) ([]Chunk, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}
	defer dec.Close()

	var chunks []Chunk
	for _, el := range img.SelectElements("chunk") {
		off, err := parseOffset(el.SelectAttrValue("offset", ""))
		if err != nil {
			return nil, &docstore.Error{Msg: "bad chunk offset", Err: err}
		}
		packed, err := base64.StdEncoding.DecodeString(stripSpace(el.Text()))
		if err != nil {
			return nil, &docstore.Error{Msg: "bad chunk encoding", Err: err}
		}
		data, err := dec.DecodeAll(packed, nil)
		if err != nil {
			return nil, &workspace.LowLevelError{Msg: "Corrupt chunk at " + formatOffset(off), Err: err}
		}
		chunks = append(chunks, Chunk{Offset: off, Data: data})
	}
	return chunks, nil
}

func readSymbols(parent *etree.Element) ([]Symbol, error) {
	var syms []Symbol
	for _, el := range parent.SelectElements("symbol") {
		sym, err := readSymbol(el)
		if err != nil {
			return nil, err
		}
		syms = append(syms, sym)
	}
	return syms, nil
}

func readSymbol(el *etree.Element) (Symbol, error) {
	off, err := parseOffset(el.SelectAttrValue("offset", ""))
	if err != nil {
		return Symbol{}, &docstore.Error{Msg: "bad symbol offset", Err: err}
	}
	return Symbol{Name: el.SelectAttrValue("name", ""), Offset: off}, nil
}
