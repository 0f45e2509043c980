// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arch

import (
	"bufio"
	"bytes"
	"debug/elf"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jeranaias/decomp-console/internal/docstore"
	"github.com/jeranaias/decomp-console/internal/workspace"
)

// Chunk is a run of image bytes at an address.
type Chunk struct {
	Offset uint64
	Data   []byte
}

// Symbol is a named address.
type Symbol struct {
	Name   string
	Offset uint64
}

// image is what a loader extracts from a file.
type image struct {
	chunks  []Chunk
	symbols []Symbol
	// target suggested by the file itself, "" when unknown
	targetHint string
}

// loader reads an image file. Failures are *docstore.Error or
// *workspace.LowLevelError.
type loader func(filename string, store *docstore.Store) (*image, error)

// =============================================================================
// PROBES
// =============================================================================

const probeSize = 512

func readHead(path string, n int) []byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	buf := make([]byte, n)
	got, _ := io.ReadFull(f, buf)
	return buf[:got]
}

func isBinaryImageXML(path string) bool {
	head := readHead(path, probeSize)
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	head = bytes.TrimSpace(head)
	if bytes.HasPrefix(head, []byte("<?xml")) {
		end := bytes.Index(head, []byte("?>"))
		if end < 0 {
			return false
		}
		head = bytes.TrimSpace(head[end+2:])
	}
	return bytes.HasPrefix(head, []byte("<binaryimage"))
}

func isELF(path string) bool {
	return bytes.Equal(readHead(path, len(elf.ELFMAG)), []byte(elf.ELFMAG))
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// =============================================================================
// XML BINARY IMAGE
// =============================================================================

func loadXMLImage(filename string, store *docstore.Store) (*image, error) {
	doc, err := store.OpenDocument(filename)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if root.Tag != "binaryimage" {
		return nil, &docstore.Error{Path: filename, Msg: "missing binaryimage tag"}
	}
	store.RegisterTag(root)

	img := &image{targetHint: root.SelectAttrValue("arch", "")}
	for _, el := range root.SelectElements("bytechunk") {
		off, err := parseOffset(el.SelectAttrValue("offset", ""))
		if err != nil {
			return nil, &docstore.Error{Path: filename, Msg: "bad bytechunk offset", Err: err}
		}
		data, err := hex.DecodeString(stripSpace(el.Text()))
		if err != nil {
			return nil, &docstore.Error{Path: filename, Msg: "bad bytechunk data", Err: err}
		}
		img.chunks = append(img.chunks, Chunk{Offset: off, Data: data})
	}
	for _, el := range root.SelectElements("symbol") {
		off, err := parseOffset(el.SelectAttrValue("offset", ""))
		if err != nil {
			return nil, &docstore.Error{Path: filename, Msg: "bad symbol offset", Err: err}
		}
		img.symbols = append(img.symbols, Symbol{Name: el.SelectAttrValue("name", ""), Offset: off})
	}
	if len(img.chunks) == 0 {
		return nil, workspace.LowLevelf("No bytechunks in binaryimage %s", filename)
	}
	return img, nil
}

func parseOffset(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty offset")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

func formatOffset(off uint64) string {
	return "0x" + strconv.FormatUint(off, 16)
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// =============================================================================
// ELF
// =============================================================================

var elfTargets = map[elf.Machine]string{
	elf.EM_386:     "x86:LE:32:default",
	elf.EM_X86_64:  "x86:LE:64:default",
	elf.EM_ARM:     "ARM:LE:32:v8",
	elf.EM_AARCH64: "AARCH64:LE:64:v8A",
	elf.EM_RISCV:   "RISCV:LE:64:default",
}

func loadELFImage(filename string, _ *docstore.Store) (*image, error) {
	f, err := elf.Open(filename)
	if err != nil {
		return nil, &workspace.LowLevelError{Msg: "Unable to read ELF image " + filename, Err: err}
	}
	defer f.Close()

	img := &image{targetHint: elfTargets[f.Machine]}
	for _, sec := range f.Sections {
		if sec.Flags&elf.SHF_ALLOC == 0 || sec.Type == elf.SHT_NOBITS || sec.Size == 0 {
			continue
		}
		data, err := sec.Data()
		if err != nil {
			return nil, &workspace.LowLevelError{Msg: "Unable to read section " + sec.Name, Err: err}
		}
		img.chunks = append(img.chunks, Chunk{Offset: sec.Addr, Data: data})
	}

	syms, err := f.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, &workspace.LowLevelError{Msg: "Unable to read symbol table", Err: err}
	}
	for _, s := range syms {
		if s.Name == "" || elf.ST_TYPE(s.Info) == elf.STT_SECTION || elf.ST_TYPE(s.Info) == elf.STT_FILE {
			continue
		}
		img.symbols = append(img.symbols, Symbol{Name: s.Name, Offset: s.Value})
	}

	if len(img.chunks) == 0 {
		return nil, workspace.LowLevelf("No loadable sections in %s", filename)
	}
	return img, nil
}

// =============================================================================
// RAW
// =============================================================================

func loadRawImage(filename string, _ *docstore.Store) (*image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, &workspace.LowLevelError{Msg: "Unable to open image " + filename, Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(bufio.NewReader(f))
	if err != nil {
		return nil, &workspace.LowLevelError{Msg: "Unable to read image " + filename, Err: err}
	}
	if len(data) == 0 {
		return nil, workspace.LowLevelf("Empty image file %s", filename)
	}
	return &image{chunks: []Chunk{{Offset: 0, Data: data}}}, nil
}
