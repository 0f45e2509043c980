// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

// LineReader supplies interactive input. ReadLine returns io.EOF when the
// user is done.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// =============================================================================
// SCANNER READER
// =============================================================================

// scanReader reads lines from a non-terminal stream. Prompts are not
// written, so piped transcripts stay clean.
type scanReader struct {
	sc *bufio.Scanner
}

// NewScanReader reads interactive input from r without line editing.
func NewScanReader(r io.Reader) LineReader {
	return &scanReader{sc: newLineScanner(r)}
}

func (r *scanReader) ReadLine(string) (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}
	if err := r.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scanReader) Close() error { return nil }

// maxLineSize bounds a single command line.
const maxLineSize = 1 << 20

func newLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	return sc
}

// =============================================================================
// TERMINAL READER
// =============================================================================

// terminalReader provides line editing, history and tab completion.
type terminalReader struct {
	line        *liner.State
	historyFile string
}

// NewTerminalReader returns a liner-backed reader. History is loaded from
// historyFile when it is non-empty and saved back on Close. complete may
// be nil.
func NewTerminalReader(historyFile string, complete func(line string) []string) LineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	if complete != nil {
		line.SetCompleter(complete)
	}

	r := &terminalReader{line: line, historyFile: historyFile}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *terminalReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		// Ctrl+C at the prompt ends the session like Ctrl+D
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (r *terminalReader) Close() error {
	defer r.line.Close()
	if r.historyFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0755); err != nil {
		return err
	}
	// SECURITY: history may hold file paths, keep it owner-only
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = r.line.WriteHistory(f)
	return err
}
