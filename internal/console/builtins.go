// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/decomp-console/internal/commands"
	"github.com/jeranaias/decomp-console/internal/util"
	"github.com/jeranaias/decomp-console/internal/workspace"
)

const (
	defaultHistoryCount = 10
	helpUsageWidth      = 48
)

// RegisterBuiltins adds the session commands: quit, echo, history, source,
// openfile, openfile append, closefile and help.
func (s *Status) RegisterBuiltins() {
	file := []commands.ArgDef{{Name: "file", Type: commands.ArgTypeFile, Required: true}}

	s.reg.Register(&commands.Command{
		Name:        "quit",
		Usage:       "quit",
		Description: "End the session",
		Run:         s.cmdQuit,
	})
	s.reg.Register(&commands.Command{
		Name:        "echo",
		Usage:       "echo <words...>",
		Description: "Print the arguments",
		Run:         s.cmdEcho,
	})
	s.reg.Register(&commands.Command{
		Name:        "history",
		Usage:       "history [<count>]",
		Description: "Show recent commands",
		Run:         s.cmdHistory,
	})
	s.reg.Register(&commands.Command{
		Name:        "source",
		Usage:       "source <file>",
		Description: "Run the commands in a script file",
		Args:        file,
		Run:         s.cmdSource,
	})
	s.reg.Register(&commands.Command{
		Name:        "openfile",
		Usage:       "openfile <file>",
		Description: "Send output to a file",
		Args:        file,
		Run:         func(_ context.Context, args []string) error { return s.cmdOpenFile(args, false) },
	})
	s.reg.Register(&commands.Command{
		Name:        "openfile append",
		Usage:       "openfile append <file>",
		Description: "Append output to a file",
		Args:        file,
		Run:         func(_ context.Context, args []string) error { return s.cmdOpenFile(args, true) },
	})
	s.reg.Register(&commands.Command{
		Name:        "closefile",
		Usage:       "closefile",
		Description: "Send output back to the terminal",
		Run:         s.cmdCloseFile,
	})
	s.reg.Register(&commands.Command{
		Name:        "help",
		Usage:       "help [<prefix>]",
		Description: "List commands",
		Run:         s.cmdHelp,
	})
}

func (s *Status) cmdQuit(_ context.Context, args []string) error {
	if len(args) > 0 {
		return workspace.NewParseError(nil, "Too many parameters to quit")
	}
	s.Quit()
	return nil
}

func (s *Status) cmdEcho(_ context.Context, args []string) error {
	fmt.Fprintln(s.out, strings.Join(args, " "))
	return nil
}

func (s *Status) cmdHistory(ctx context.Context, args []string) error {
	count := defaultHistoryCount
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return workspace.NewParseError(nil, "Bad history count: "+args[0])
		}
		count = n
	}

	// The history command itself is the newest in-memory entry
	lines := s.History(ctx, count+1)
	if s.jrnl == nil && len(lines) > 0 {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > count {
		lines = lines[len(lines)-count:]
	}
	for _, line := range lines {
		fmt.Fprintln(s.out, line)
	}
	return nil
}

func (s *Status) cmdSource(_ context.Context, args []string) error {
	if len(args) == 0 {
		return workspace.NewParseError(workspace.ErrMissingFileName, "filename parameter required for source")
	}
	return s.PushScript(args[0], args[0]+"> ")
}

func (s *Status) cmdOpenFile(args []string, appendMode bool) error {
	if len(args) == 0 {
		return workspace.NewParseError(workspace.ErrMissingFileName, "No filename specified")
	}
	return s.openSink(args[0], appendMode)
}

func (s *Status) cmdCloseFile(_ context.Context, _ []string) error {
	return s.closeSink()
}

// cmdHelp lists visible command names with usage, optionally filtered by
// a name prefix.
func (s *Status) cmdHelp(_ context.Context, args []string) error {
	prefix := strings.Join(args, " ")

	var rows [][2]string
	width := 0
	for _, name := range s.reg.Names() {
		cmd := s.reg.Get(name)
		if cmd == nil || cmd.Hidden || !strings.HasPrefix(name, prefix) {
			continue
		}
		usage := cmd.Usage
		if usage == "" || !strings.HasPrefix(usage, name) {
			usage = name
		}
		rows = append(rows, [2]string{usage, cmd.Description})
		if w := runewidth.StringWidth(usage); w > width {
			width = w
		}
	}
	if len(rows) == 0 {
		return workspace.NewExecutionError(nil, "No commands match %s", prefix)
	}
	if width > helpUsageWidth {
		width = helpUsageWidth
	}

	fmt.Fprintln(s.out, s.styled(titleStyle.Render, "Commands:"))
	for _, row := range rows {
		usage := util.PadRight(util.Truncate(row[0], width), width)
		fmt.Fprintf(s.out, "  %s  %s\n", usage, s.styled(dimStyle.Render, row[1]))
	}
	return nil
}
