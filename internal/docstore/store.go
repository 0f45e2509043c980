// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docstore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/beevik/etree"
)

// =============================================================================
// ERRORS
// =============================================================================

// Error is a structured-document failure.
type Error struct {
	Path string // Source path, empty for streams
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Path != "" {
		return e.Path + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an Error without an underlying cause.
func Errorf(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is a parsed structured document.
type Document struct {
	Path string
	doc  *etree.Document
}

// Root returns the root element.
func (d *Document) Root() *etree.Element {
	return d.doc.Root()
}

// RootTag returns the tag name of the root element.
func (d *Document) RootTag() string {
	return d.doc.Root().Tag
}

// =============================================================================
// STORE
// =============================================================================

// Store holds the documents opened for one construction and the root
// elements registered by tag. A Store is not safe for concurrent use.
type Store struct {
	docs []*Document
	tags map[string]*etree.Element
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{tags: make(map[string]*etree.Element)}
}

// OpenDocument reads and parses the document at path.
func (s *Store) OpenDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Path: path, Msg: "unable to open document", Err: err}
	}
	defer f.Close()

	doc, err := s.parse(f)
	if err != nil {
		var de *Error
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// ParseDocument parses a document from r.
func (s *Store) ParseDocument(r io.Reader) (*Document, error) {
	return s.parse(r)
}

func (s *Store) parse(r io.Reader) (*Document, error) {
	d := etree.NewDocument()
	if _, err := d.ReadFrom(bufio.NewReader(r)); err != nil {
		return nil, &Error{Msg: "malformed document", Err: err}
	}
	if d.Root() == nil {
		return nil, &Error{Msg: "document has no root element"}
	}

	doc := &Document{doc: d}
	s.docs = append(s.docs, doc)
	return doc, nil
}

// RegisterTag makes el retrievable through Tag under its tag name.
// A later registration under the same name replaces the earlier one.
func (s *Store) RegisterTag(el *etree.Element) {
	if el == nil {
		return
	}
	s.tags[el.Tag] = el
}

// Tag returns the registered element with the given tag name, or nil.
func (s *Store) Tag(name string) *etree.Element {
	return s.tags[name]
}

// Documents returns the documents parsed through this store, oldest first.
func (s *Store) Documents() []*Document {
	return s.docs
}

// =============================================================================
// WRITER
// =============================================================================

// Write serializes root as a standalone, indented document.
func Write(w io.Writer, root *etree.Element) error {
	d := etree.NewDocument()
	d.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	d.SetRoot(root)
	d.Indent(2)
	if _, err := d.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}
