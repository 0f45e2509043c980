// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/decomp-console/internal/docstore"
)

// =============================================================================
// FAKES
// =============================================================================

// fakeWorkspace records what the controller does with it.
type fakeWorkspace struct {
	format   string
	filename string
	target   string

	initErr    error
	restoreErr error
	symbolsErr error

	rules   bool
	symbols []string
	closed  bool
}

func (w *fakeWorkspace) Init(store *docstore.Store) error {
	w.rules = store.Tag(ExperimentalRulesTag) != nil
	return w.initErr
}

func (w *fakeWorkspace) Restore(store *docstore.Store) error {
	if w.restoreErr != nil {
		return w.restoreErr
	}
	root := store.Tag(w.format + "_savefile")
	if root == nil {
		return docstore.Errorf("missing savefile")
	}
	w.filename = root.SelectAttrValue("name", "")
	w.target = root.SelectAttrValue("target", DefaultTarget)
	return nil
}

func (w *fakeWorkspace) Save(out io.Writer) error {
	root := etree.NewElement(w.format + "_savefile")
	root.CreateAttr("name", w.filename)
	root.CreateAttr("target", w.target)
	return docstore.Write(out, root)
}

func (w *fakeWorkspace) ReadLoaderSymbols(ns string) error {
	w.symbols = append(w.symbols, ns)
	return w.symbolsErr
}

func (w *fakeWorkspace) Description() string {
	return fmt.Sprintf("%s %s/%s", w.format, w.filename, w.target)
}

func (w *fakeWorkspace) Close() error {
	w.closed = true
	return nil
}

// fakeCapability claims files with its extension.
type fakeCapability struct {
	name string
	ext  string

	// template for built workspaces
	initErr    error
	restoreErr error

	built []*fakeWorkspace
}

func (c *fakeCapability) Name() string { return c.name }

func (c *fakeCapability) MatchesFile(path string) bool {
	return strings.HasSuffix(path, c.ext)
}

func (c *fakeCapability) MatchesDocument(root *etree.Element) bool {
	return root.Tag == c.name+"_savefile"
}

func (c *fakeCapability) Build(filename, target string, _ io.Writer) Workspace {
	ws := &fakeWorkspace{
		format:     c.name,
		filename:   filename,
		target:     target,
		initErr:    c.initErr,
		restoreErr: c.restoreErr,
	}
	c.built = append(c.built, ws)
	return ws
}

func (c *fakeCapability) last() *fakeWorkspace {
	if len(c.built) == 0 {
		return nil
	}
	return c.built[len(c.built)-1]
}

type fixture struct {
	ctl *Controller
	out *bytes.Buffer
	xml *fakeCapability
	raw *fakeCapability
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		out: &bytes.Buffer{},
		xml: &fakeCapability{name: "xml", ext: ".xml"},
		raw: &fakeCapability{name: "raw", ext: ".bin"},
	}
	f.ctl = NewController(Options{
		Capabilities: NewRegistry(f.xml, f.raw),
		Output:       f.out,
	})
	return f
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func requireParseError(t *testing.T, err error, kind error) {
	t.Helper()
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "want *ParseError, got %T: %v", err, err)
	assert.ErrorIs(t, err, kind)
}

func requireExecutionError(t *testing.T, err error, kind error) {
	t.Helper()
	var ee *ExecutionError
	require.True(t, errors.As(err, &ee), "want *ExecutionError, got %T: %v", err, err)
	if kind != nil {
		assert.ErrorIs(t, err, kind)
	}
}

// =============================================================================
// LOAD
// =============================================================================

func TestLoadDefaultTarget(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctl.Load([]string{"prog.bin"}))

	ws := f.raw.last()
	require.NotNil(t, ws)
	assert.Same(t, ws, f.ctl.Current())
	assert.Equal(t, DefaultTarget, ws.target)
	assert.Equal(t, "prog.bin", ws.filename)
	assert.Empty(t, ws.symbols, "raw images publish no loader symbols")
	assert.Equal(t, "prog.bin successfully loaded: raw prog.bin/default\n", f.out.String())
}

func TestLoadExplicitTargetIgnoresExtraTokens(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctl.Load([]string{"x86:LE:64:default", "prog.bin", "extra"}))

	ws := f.raw.last()
	assert.Equal(t, "x86:LE:64:default", ws.target)
	assert.Equal(t, "prog.bin", ws.filename)
}

func TestLoadReadsLoaderSymbolsForXML(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctl.Load([]string{"image.xml"}))
	assert.Equal(t, []string{"::"}, f.xml.last().symbols)
}

func TestLoadSymbolFailureDiscardsWorkspace(t *testing.T) {
	f := newFixture(t)
	capa := &symbolFailCapability{fakeCapability: f.xml}
	ctl := NewController(Options{Capabilities: NewRegistry(capa), Output: f.out})

	err := ctl.Load([]string{"image.xml"})
	requireExecutionError(t, err, nil)
	assert.Nil(t, ctl.Current())
	assert.True(t, f.xml.last().closed)
}

type symbolFailCapability struct {
	*fakeCapability
}

func (c *symbolFailCapability) Build(filename, target string, out io.Writer) Workspace {
	ws := c.fakeCapability.Build(filename, target, out).(*fakeWorkspace)
	ws.symbolsErr = errors.New("symbol table unreadable")
	return ws
}

func TestLoadRejectsSecondImage(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Load([]string{"first.bin"}))
	first := f.ctl.Current()

	err := f.ctl.Load([]string{"second.bin"})
	requireExecutionError(t, err, ErrAlreadyLoaded)
	assert.Equal(t, "Load image already present", err.Error())
	assert.Same(t, first, f.ctl.Current())
	assert.Len(t, f.raw.built, 1, "no workspace should be built")
}

func TestLoadMissingFileName(t *testing.T) {
	f := newFixture(t)

	err := f.ctl.Load(nil)
	requireParseError(t, err, ErrMissingFileName)
	assert.Nil(t, f.ctl.Current())
}

func TestLoadUnrecognizedFormat(t *testing.T) {
	f := newFixture(t)

	err := f.ctl.Load([]string{"notes.txt"})
	requireExecutionError(t, err, ErrUnrecognizedFormat)
	assert.Equal(t, "Unable to recognize imagefile notes.txt", err.Error())
	assert.Nil(t, f.ctl.Current())
}

func TestLoadSoftFailures(t *testing.T) {
	tests := []struct {
		name    string
		initErr error
		wantMsg string
	}{
		{"low level", LowLevelf("No sleigh specification for bogus"), "No sleigh specification for bogus"},
		{"document", &docstore.Error{Path: "prog.bin", Msg: "malformed document"}, "prog.bin: malformed document"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.raw.initErr = tc.initErr

			require.NoError(t, f.ctl.Load([]string{"prog.bin"}))
			assert.Nil(t, f.ctl.Current())
			assert.True(t, f.raw.last().closed, "failed workspace must be released")
			assert.Equal(t, tc.wantMsg+"\nCould not create architecture\n", f.out.String())

			// The console stays usable for another load
			f.raw.initErr = nil
			require.NoError(t, f.ctl.Load([]string{"prog.bin"}))
			assert.NotNil(t, f.ctl.Current())
		})
	}
}

func TestLoadHardFailure(t *testing.T) {
	f := newFixture(t)
	f.raw.initErr = errors.New("out of address space")

	err := f.ctl.Load([]string{"prog.bin"})
	requireExecutionError(t, err, nil)
	assert.Equal(t, "out of address space", err.Error())
	assert.Nil(t, f.ctl.Current())
	assert.True(t, f.raw.last().closed)
}

// =============================================================================
// EXPERIMENTAL RULES
// =============================================================================

func TestLoadExperimentalRules(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "rules.xml", `<experimental_rules><rule name="a"/></experimental_rules>`)
	wrong := writeFile(t, dir, "wrong.xml", `<rules/>`)
	missing := filepath.Join(dir, "absent.xml")

	tests := []struct {
		name      string
		path      string
		wantRules bool
		wantOut   []string
	}{
		{"registered", good, true, []string{"Trying to parse " + good + " for experimental rules"}},
		{"wrong tag", wrong, false, []string{"Wrong tag type for experimental rules: rules"}},
		{"unreadable", missing, false, []string{"unable to open document", "Skipping experimental rules"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.ctl.experimental = tc.path

			require.NoError(t, f.ctl.Load([]string{"prog.bin"}))
			assert.Equal(t, tc.wantRules, f.raw.last().rules)
			for _, want := range tc.wantOut {
				assert.Contains(t, f.out.String(), want)
			}
			assert.NotNil(t, f.ctl.Current(), "rule problems never block the load")
		})
	}
}

// =============================================================================
// SAVE
// =============================================================================

func TestSaveMissingName(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Load([]string{"prog.bin"}))

	err := f.ctl.Save(nil)
	requireParseError(t, err, ErrMissingFileName)
	assert.Equal(t, "Missing savefile name", err.Error())
}

func TestSaveWithoutWorkspaceRemembersName(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "ws.xml")

	err := f.ctl.Save([]string{path})
	requireExecutionError(t, err, ErrNoWorkspace)
	assert.Equal(t, path, f.ctl.LastPath())
	assert.NoFileExists(t, path)
}

func TestSaveWritesAndReusesName(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "ws.xml")
	require.NoError(t, f.ctl.Load([]string{"prog.bin"}))

	require.NoError(t, f.ctl.Save([]string{path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<raw_savefile name="prog.bin" target="default"/>`)

	require.NoError(t, os.Remove(path))
	require.NoError(t, f.ctl.Save(nil), "second save reuses the remembered name")
	assert.FileExists(t, path)
}

func TestSaveUnwritablePath(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Load([]string{"prog.bin"}))
	// A regular file where the parent directory should be
	blocker := writeFile(t, t.TempDir(), "blocker", "")
	path := filepath.Join(blocker, "ws.xml")

	err := f.ctl.Save([]string{path})
	requireExecutionError(t, err, ErrCannotOpenFile)
	assert.Equal(t, "Unable to open file: "+path, err.Error())
	assert.NotNil(t, f.ctl.Current(), "failed save keeps the workspace")
}

// =============================================================================
// RESTORE
// =============================================================================

func TestRestoreMissingName(t *testing.T) {
	f := newFixture(t)

	err := f.ctl.Restore(nil)
	requireParseError(t, err, ErrMissingFileName)
	assert.Equal(t, "Missing file name", err.Error())
}

func TestRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "ws.xml")
	require.NoError(t, f.ctl.Load([]string{"arm:LE:32:v8", "prog.bin"}))
	require.NoError(t, f.ctl.Save([]string{path}))
	saved := f.raw.last()

	f.out.Reset()
	require.NoError(t, f.ctl.Restore([]string{path}))

	assert.True(t, saved.closed, "previous workspace is discarded")
	restored := f.raw.last()
	assert.NotSame(t, saved, restored)
	assert.Same(t, restored, f.ctl.Current())
	assert.Equal(t, "prog.bin", restored.filename)
	assert.Equal(t, "arm:LE:32:v8", restored.target)
	assert.Contains(t, f.out.String(), path+" successfully loaded")
}

func TestRestoreSharesPathWithSave(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "ws.xml", `<raw_savefile name="prog.bin" target="default"/>`)

	require.NoError(t, f.ctl.Restore([]string{path}))
	assert.Equal(t, path, f.ctl.LastPath())

	require.NoError(t, os.Remove(path))
	require.NoError(t, f.ctl.Save(nil))
	assert.FileExists(t, path)
}

func TestRestoreFailures(t *testing.T) {
	dir := t.TempDir()
	unknown := writeFile(t, dir, "unknown.xml", `<elf_savefile name="a"/>`)
	broken := writeFile(t, dir, "broken.xml", `<raw_savefile`)
	good := writeFile(t, dir, "good.xml", `<raw_savefile name="a"/>`)

	tests := []struct {
		name        string
		path        string
		restoreErr  error
		kind        error
		wantMsg     string
		keepCurrent bool
	}{
		{"no such file", filepath.Join(dir, "absent.xml"), nil, ErrDocument, "", true},
		{"malformed", broken, nil, ErrDocument, "", true},
		{"unknown tag", unknown, nil, ErrUnrecognizedFormat, "Could not find savefile tag", false},
		{"low level", good, LowLevelf("Savefile image digest mismatch"), nil, "Savefile image digest mismatch", false},
		{"document", good, docstore.Errorf("missing loadimage"), ErrDocument, "missing loadimage", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.ctl.Load([]string{"prog.bin"}))
			before := f.ctl.Current()
			f.raw.restoreErr = tc.restoreErr

			err := f.ctl.Restore([]string{tc.path})
			requireExecutionError(t, err, tc.kind)
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, err.Error())
			}
			if tc.keepCurrent {
				assert.Same(t, before, f.ctl.Current())
			} else {
				assert.Nil(t, f.ctl.Current(), "failed restore leaves no workspace")
			}
			assert.Equal(t, tc.path, f.ctl.LastPath())
		})
	}
}

// =============================================================================
// SEARCH PATHS
// =============================================================================

func TestAddSearchPath(t *testing.T) {
	f := newFixture(t)

	err := f.ctl.AddSearchPath(nil)
	requireParseError(t, err, ErrMissingPath)
	assert.Equal(t, "Missing path name", err.Error())

	require.NoError(t, f.ctl.AddSearchPath([]string{"/opt/ghidra/Processors"}))
	require.NoError(t, f.ctl.AddSearchPath([]string{"/nonexistent"}))
	assert.Equal(t, []string{"/opt/ghidra/Processors", "/nonexistent"}, f.ctl.SearchPaths().Dirs())
}

func TestSearchPathsMatchSuffix(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "x86", "data"), 0755))
	want := writeFile(t, filepath.Join(root, "x86", "data"), "x86.ldefs", "<language_definitions/>")
	writeFile(t, root, "README", "")

	paths := NewSearchPaths(root, filepath.Join(root, "missing"))
	assert.Equal(t, []string{want}, paths.MatchSuffix(".ldefs"))

	found, ok := paths.Find("README")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, "README"), found)

	var nilPaths *SearchPaths
	assert.Nil(t, nilPaths.MatchSuffix(".ldefs"))
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	f.ctl.Clear()
	require.NoError(t, f.ctl.Load([]string{"prog.bin"}))

	f.ctl.Clear()
	assert.Nil(t, f.ctl.Current())
	assert.True(t, f.raw.last().closed)
}
