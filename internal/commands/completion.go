// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// maxFileCompletions caps directory listings offered for one tab press.
const maxFileCompletions = 20

// Completion is a single completion candidate for the last token.
type Completion struct {
	Value       string // Replacement for the partial token
	Display     string // Shown in listings
	Description string
	Score       int
}

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for command words and file arguments.
type Completer struct {
	registry *Registry
}

// NewCompleter creates a completer over registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns candidates for the token being typed at the end of line.
func (c *Completer) Complete(line string) []Completion {
	if c.registry == nil {
		return nil
	}
	done, partial := PartialToken(line)

	words := c.completeWords(done, partial)
	if cmd, args, err := c.registry.Resolve(done); err == nil {
		words = append(words, c.completeArg(cmd, len(args), partial)...)
	}
	sortCompletions(words)
	return words
}

// Lines returns whole-line completions, the form liner expects.
func (c *Completer) Lines(line string) []string {
	done, _ := PartialToken(line)
	head := ""
	for _, tok := range done {
		head += quote(tok) + " "
	}

	var out []string
	for _, comp := range c.Complete(line) {
		out = append(out, head+quote(comp.Value))
	}
	return out
}

// =============================================================================
// COMMAND WORD COMPLETION
// =============================================================================

// completeWords offers the next word of every visible command name whose
// earlier words are matched by done.
func (c *Completer) completeWords(done []string, partial string) []Completion {
	seen := make(map[string]bool)
	var completions []Completion

	for _, e := range c.registry.entries {
		if e.cmd.Hidden || len(e.words) <= len(done) || !wordsMatch(e.words, done) {
			continue
		}
		word := e.words[len(done)]
		if seen[word] || !strings.HasPrefix(word, partial) {
			continue
		}
		seen[word] = true
		completions = append(completions, Completion{
			Value:       word,
			Display:     e.name(),
			Description: e.cmd.Description,
			Score:       calculateScore(word, partial),
		})
	}
	return completions
}

func wordsMatch(words, tokens []string) bool {
	for i, tok := range tokens {
		if !strings.HasPrefix(words[i], tok) {
			return false
		}
	}
	return true
}

// =============================================================================
// ARGUMENT COMPLETION
// =============================================================================

// completeArg completes argument argIndex of cmd. Arguments past the
// declared list take the type of the last one.
func (c *Completer) completeArg(cmd *Command, argIndex int, partial string) []Completion {
	if len(cmd.Args) == 0 {
		return nil
	}
	if argIndex >= len(cmd.Args) {
		argIndex = len(cmd.Args) - 1
	}

	switch cmd.Args[argIndex].Type {
	case ArgTypeFile:
		return completeFiles(partial)
	default:
		return nil
	}
}

// completeFiles lists directory entries matching partial.
func completeFiles(partial string) []Completion {
	dir := filepath.Dir(partial)
	prefix := filepath.Base(partial)
	if partial == "" || strings.HasSuffix(partial, string(os.PathSeparator)) {
		dir = partial
		prefix = ""
	}

	readDir := dir
	if readDir == "" {
		readDir = "."
	}
	entries, err := os.ReadDir(readDir)
	if err != nil {
		return nil
	}

	var completions []Completion
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		// Hidden files only when asked for
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}

		path := name
		if dir != "" && dir != "." {
			path = filepath.Join(dir, name)
		}
		score := calculateScore(name, prefix)
		desc := ""
		if entry.IsDir() {
			path += string(os.PathSeparator)
			score += 5
			desc = "directory"
		} else if info, err := entry.Info(); err == nil {
			desc = humanize.Bytes(uint64(info.Size()))
		}

		completions = append(completions, Completion{
			Value:       path,
			Display:     name,
			Description: desc,
			Score:       score,
		})
	}

	sortCompletions(completions)
	if len(completions) > maxFileCompletions {
		completions = completions[:maxFileCompletions]
	}
	return completions
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// calculateScore ranks a candidate; higher is better.
func calculateScore(value, partial string) int {
	score := 100
	if value == partial {
		return score + 100
	}
	if strings.HasPrefix(value, partial) {
		score += 50
		score += 20 - len(value)
	}
	return score - len(value)/2
}

// sortCompletions sorts by score (descending), then alphabetically.
func sortCompletions(completions []Completion) {
	sort.SliceStable(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].Value < completions[j].Value
	})
}

// quote wraps tokens containing spaces so Tokenize reads them back whole.
func quote(tok string) string {
	if !strings.ContainsAny(tok, " \t\"'") {
		return tok
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(tok) + `"`
}
