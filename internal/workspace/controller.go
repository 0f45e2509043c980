// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/jeranaias/decomp-console/internal/docstore"
	"github.com/jeranaias/decomp-console/internal/util"
)

const (
	// DefaultTarget is the target label used when load gets only a file name.
	DefaultTarget = "default"

	// ExperimentalRulesTag is the root tag an experimental rules document must carry.
	ExperimentalRulesTag = "experimental_rules"

	// loaderSymbolFormat is the capability whose images carry their own
	// symbol table, read after a successful load.
	loaderSymbolFormat = "xml"

	// rootNamespace is where loader symbols are published.
	rootNamespace = "::"
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Options configures a Controller.
type Options struct {
	// Capabilities resolves formats. Required.
	Capabilities *Registry

	// SearchPaths receives addpath entries. A fresh list is used when nil.
	SearchPaths *SearchPaths

	// ExperimentalRules is an optional rules document registered before
	// workspace initialization.
	ExperimentalRules string

	// Output receives console messages. Defaults to io.Discard.
	Output io.Writer

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Controller owns the current workspace and the save/restore path.
// It is used from a single goroutine.
type Controller struct {
	caps         *Registry
	paths        *SearchPaths
	experimental string
	out          io.Writer
	log          *zap.Logger

	current  Workspace
	lastPath string // shared by save and restore
}

// NewController creates a controller with no workspace loaded.
func NewController(opts Options) *Controller {
	c := &Controller{
		caps:         opts.Capabilities,
		paths:        opts.SearchPaths,
		experimental: opts.ExperimentalRules,
		out:          opts.Output,
		log:          opts.Logger,
	}
	if c.caps == nil {
		c.caps = NewRegistry()
	}
	if c.paths == nil {
		c.paths = NewSearchPaths()
	}
	if c.out == nil {
		c.out = io.Discard
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// Current returns the live workspace, or nil.
func (c *Controller) Current() Workspace {
	return c.current
}

// LastPath returns the remembered save/restore file name.
func (c *Controller) LastPath() string {
	return c.lastPath
}

// SearchPaths returns the controller's search list.
func (c *Controller) SearchPaths() *SearchPaths {
	return c.paths
}

// SetOutput redirects console messages.
func (c *Controller) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	c.out = w
}

// Clear discards the current workspace, if any.
func (c *Controller) Clear() {
	if c.current == nil {
		return
	}
	destroy(c.current)
	c.current = nil
	c.log.Debug("Workspace cleared")
}

// =============================================================================
// LOAD
// =============================================================================

// Load builds a workspace from an image file.
//
// args is either [file] (target "default") or [target, file]. Tokens past
// the second are ignored. Failures while initializing the new workspace are
// reported to the output sink and leave no workspace behind; Load then
// returns nil.
func (c *Controller) Load(args []string) error {
	if c.current != nil {
		return NewExecutionError(ErrAlreadyLoaded, "Load image already present")
	}

	var target, filename string
	switch len(args) {
	case 0:
		return NewParseError(ErrMissingFileName, "Missing image file name")
	case 1:
		target, filename = DefaultTarget, args[0]
	default:
		target, filename = args[0], args[1]
	}

	capa := c.caps.FindByFile(filename)
	if capa == nil {
		return NewExecutionError(ErrUnrecognizedFormat, "Unable to recognize imagefile %s", filename)
	}
	c.log.Debug("Building workspace",
		zap.String("format", capa.Name()),
		zap.String("file", filename),
		zap.String("target", target))

	ws := capa.Build(filename, target, c.out)
	store := docstore.NewStore()
	c.registerExperimentalRules(store)

	if err := ws.Init(store); err != nil {
		destroy(ws)
		var docErr *docstore.Error
		var lowErr *LowLevelError
		if errors.As(err, &docErr) || errors.As(err, &lowErr) {
			// Soft failure: report and carry on with no workspace
			fmt.Fprintln(c.out, err.Error())
			fmt.Fprintln(c.out, "Could not create architecture")
			c.log.Warn("Workspace initialization failed",
				zap.String("file", filename), zap.Error(err))
			return nil
		}
		return &ExecutionError{Msg: err.Error(), Err: err}
	}

	if capa.Name() == loaderSymbolFormat {
		if err := ws.ReadLoaderSymbols(rootNamespace); err != nil {
			destroy(ws)
			return &ExecutionError{Msg: err.Error(), Err: err}
		}
	}

	c.current = ws
	fmt.Fprintf(c.out, "%s successfully loaded: %s\n", filename, ws.Description())
	c.log.Info("Workspace loaded", zap.String("file", filename), zap.String("format", capa.Name()))
	return nil
}

// registerExperimentalRules adds the configured rules document to store.
// Problems with the document are reported and otherwise ignored.
func (c *Controller) registerExperimentalRules(store *docstore.Store) {
	if c.experimental == "" {
		return
	}
	fmt.Fprintf(c.out, "Trying to parse %s for experimental rules\n", c.experimental)

	doc, err := store.OpenDocument(c.experimental)
	if err != nil {
		fmt.Fprintln(c.out, err.Error())
		fmt.Fprintln(c.out, "Skipping experimental rules")
		c.log.Warn("Experimental rules skipped", zap.String("file", c.experimental), zap.Error(err))
		return
	}
	if tag := doc.RootTag(); tag != ExperimentalRulesTag {
		fmt.Fprintf(c.out, "Wrong tag type for experimental rules: %s\n", tag)
		return
	}
	store.RegisterTag(doc.Root())
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the current workspace to args[0], or to the remembered file
// name when args is empty. A given name is remembered for later saves and
// shares its slot with Restore.
func (c *Controller) Save(args []string) error {
	if len(args) > 0 {
		c.lastPath = args[0]
	}
	if c.lastPath == "" {
		return NewParseError(ErrMissingFileName, "Missing savefile name")
	}
	if c.current == nil {
		return NewExecutionError(ErrNoWorkspace, "No load image present")
	}

	var buf bytes.Buffer
	if err := c.current.Save(&buf); err != nil {
		return &ExecutionError{Msg: err.Error(), Err: err}
	}
	// RELIABILITY: temp file + rename, a failed save keeps the old file
	if err := util.AtomicWriteFile(c.lastPath, buf.Bytes(), 0644); err != nil {
		return &ExecutionError{
			Msg: "Unable to open file: " + c.lastPath,
			Err: withKind(ErrCannotOpenFile, err),
		}
	}

	c.log.Info("Workspace saved", zap.String("file", c.lastPath), zap.Int("bytes", buf.Len()))
	return nil
}

// =============================================================================
// RESTORE
// =============================================================================

// Restore replaces the current workspace with one rebuilt from the savefile
// args[0]. Any existing workspace is discarded first, so a failure leaves no
// workspace; unlike Load, the failure is returned as an *ExecutionError.
func (c *Controller) Restore(args []string) error {
	if len(args) == 0 || args[0] == "" {
		return NewParseError(ErrMissingFileName, "Missing file name")
	}
	c.lastPath = args[0]

	store := docstore.NewStore()
	doc, err := store.OpenDocument(c.lastPath)
	if err != nil {
		return &ExecutionError{Msg: err.Error(), Err: withKind(ErrDocument, err)}
	}
	store.RegisterTag(doc.Root())

	c.Clear()

	capa := c.caps.FindByDocument(doc)
	if capa == nil {
		return NewExecutionError(ErrUnrecognizedFormat, "Could not find savefile tag")
	}

	ws := capa.Build("", "", c.out)
	if err := ws.Restore(store); err != nil {
		destroy(ws)
		c.log.Warn("Workspace restore failed", zap.String("file", c.lastPath), zap.Error(err))
		var docErr *docstore.Error
		if errors.As(err, &docErr) {
			err = withKind(ErrDocument, err)
		}
		return &ExecutionError{Msg: err.Error(), Err: err}
	}

	c.current = ws
	fmt.Fprintf(c.out, "%s successfully loaded: %s\n", c.lastPath, ws.Description())
	c.log.Info("Workspace restored", zap.String("file", c.lastPath), zap.String("format", capa.Name()))
	return nil
}

// =============================================================================
// SEARCH PATHS
// =============================================================================

// AddSearchPath appends args[0] to the search paths.
func (c *Controller) AddSearchPath(args []string) error {
	if len(args) == 0 || args[0] == "" {
		return NewParseError(ErrMissingPath, "Missing path name")
	}
	c.paths.Add(args[0])
	c.log.Debug("Search path added", zap.String("path", args[0]))
	return nil
}
