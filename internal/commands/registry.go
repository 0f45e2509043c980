// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Handler executes a command with the tokens that follow its name.
type Handler func(ctx context.Context, args []string) error

// Command is an executable console command.
type Command struct {
	// Name is the primary name shown in help (e.g. "load")
	Name string

	// Usage shows argument syntax (e.g. "load [<target>] <file>")
	Usage string

	// Description is shown in help
	Description string

	// Args drives argument completion
	Args []ArgDef

	// Run executes the command
	Run Handler

	// Hidden commands don't appear in help
	Hidden bool
}

// ArgDef describes one positional argument.
type ArgDef struct {
	Name     string
	Type     ArgType
	Required bool
}

// ArgType selects argument completion behaviour.
type ArgType int

const (
	ArgTypeString ArgType = iota // Free-form
	ArgTypeFile                  // Filesystem path
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnknownCommand is returned when no registered name matches.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrEmptyCommand is returned for input with no tokens.
	ErrEmptyCommand = errors.New("empty command")
)

// AmbiguousError reports input that matches several commands.
type AmbiguousError struct {
	Input      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return "ambiguous command '" + e.Input + "': could be " + strings.Join(e.Candidates, ", ")
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

type entry struct {
	words []string
	cmd   *Command
}

func (e entry) name() string {
	return strings.Join(e.words, " ")
}

// Registry holds the console's command table. Names are kept sorted.
type Registry struct {
	entries []entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds cmd under the given name words, e.g. ("load", "file").
// With no words the fields of cmd.Name are used. Registering an existing
// name replaces its command.
func (r *Registry) Register(cmd *Command, words ...string) {
	if len(words) == 0 {
		words = strings.Fields(cmd.Name)
	}
	if len(words) == 0 {
		return
	}
	words = append([]string(nil), words...)
	name := strings.Join(words, " ")

	for i := range r.entries {
		if r.entries[i].name() == name {
			r.entries[i].cmd = cmd
			return
		}
	}

	r.entries = append(r.entries, entry{words: words, cmd: cmd})
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].name() < r.entries[j].name()
	})
}

// Get returns the command registered under the exact name, or nil.
func (r *Registry) Get(name string) *Command {
	name = strings.Join(strings.Fields(name), " ")
	for _, e := range r.entries {
		if e.name() == name {
			return e.cmd
		}
	}
	return nil
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name()
	}
	return names
}

// All returns each distinct command once, in name order.
func (r *Registry) All() []*Command {
	seen := make(map[*Command]bool)
	var cmds []*Command
	for _, e := range r.entries {
		if !seen[e.cmd] {
			seen[e.cmd] = true
			cmds = append(cmds, e.cmd)
		}
	}
	return cmds
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve finds the command named by the leading tokens and returns it
// with the remaining tokens as arguments.
//
// Each token narrows the candidates to names whose word at that position
// starts with it; an exact word match wins over prefix matches. Past the
// first word, a prefix only extends the name when no shorter name is
// complete yet, so "load file x" is "load file" but "load fi" is "load"
// with argument "fi". Names that map to the same command are not
// ambiguous with each other.
func (r *Registry) Resolve(tokens []string) (*Command, []string, error) {
	if len(tokens) == 0 {
		return nil, nil, ErrEmptyCommand
	}

	cands := r.entries
	consumed := 0
	for i, tok := range tokens {
		next := filterEntries(cands, func(e entry) bool {
			return len(e.words) > i && strings.HasPrefix(e.words[i], tok)
		})
		if exact := filterEntries(next, func(e entry) bool { return e.words[i] == tok }); len(exact) > 0 {
			next = exact
		} else if i > 0 && hasComplete(cands, consumed) {
			// A complete name is already matched; a partial subword is an
			// argument ("load f" is load with file "f")
			break
		}
		if len(next) == 0 {
			break
		}
		cands = next
		consumed = i + 1
	}

	if consumed == 0 {
		return nil, nil, ErrUnknownCommand
	}

	full := filterEntries(cands, func(e entry) bool { return len(e.words) == consumed })
	if distinct(full) == 1 {
		return full[0].cmd, tokens[consumed:], nil
	}

	// Either several commands share the name, or only longer names remain
	// ("openfile" when just "openfile append" is registered)
	if len(full) == 0 {
		full = cands
	}
	return nil, nil, &AmbiguousError{Input: strings.Join(tokens[:consumed], " "), Candidates: names(full)}
}

func hasComplete(in []entry, n int) bool {
	for _, e := range in {
		if len(e.words) == n {
			return true
		}
	}
	return false
}

func filterEntries(in []entry, keep func(entry) bool) []entry {
	var out []entry
	for _, e := range in {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func distinct(in []entry) int {
	seen := make(map[*Command]bool)
	for _, e := range in {
		seen[e.cmd] = true
	}
	return len(seen)
}

func names(in []entry) []string {
	out := make([]string, len(in))
	for i, e := range in {
		out[i] = e.name()
	}
	return out
}
