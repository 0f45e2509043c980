// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"context"
	"fmt"
	"io"

	"github.com/jeranaias/decomp-console/internal/commands"
	"github.com/jeranaias/decomp-console/internal/workspace"
)

// RegisterLifecycle adds the workspace commands backed by ctl: load (also
// as "load file"), addpath, save, restore, clear and info. Register these
// after any bulk-registered commands; same-named commands are replaced.
// info writes to out.
func RegisterLifecycle(reg *commands.Registry, ctl *workspace.Controller, out io.Writer) {
	file := commands.ArgDef{Name: "file", Type: commands.ArgTypeFile, Required: true}

	load := &commands.Command{
		Name:        "load",
		Usage:       "load [<target>] <file>",
		Description: "Build a workspace from an image file",
		Args:        []commands.ArgDef{file, file},
		Run:         func(_ context.Context, args []string) error { return ctl.Load(args) },
	}
	reg.Register(load, "load")
	reg.Register(load, "load", "file")

	reg.Register(&commands.Command{
		Name:        "addpath",
		Usage:       "addpath <path>",
		Description: "Add a directory to the resource search paths",
		Args:        []commands.ArgDef{{Name: "path", Type: commands.ArgTypeFile, Required: true}},
		Run:         func(_ context.Context, args []string) error { return ctl.AddSearchPath(args) },
	})
	reg.Register(&commands.Command{
		Name:        "save",
		Usage:       "save [<file>]",
		Description: "Write the workspace to a savefile",
		Args:        []commands.ArgDef{{Name: "file", Type: commands.ArgTypeFile}},
		Run:         func(_ context.Context, args []string) error { return ctl.Save(args) },
	})
	reg.Register(&commands.Command{
		Name:        "restore",
		Usage:       "restore <file>",
		Description: "Replace the workspace with one from a savefile",
		Args:        []commands.ArgDef{file},
		Run:         func(_ context.Context, args []string) error { return ctl.Restore(args) },
	})
	reg.Register(&commands.Command{
		Name:        "clear",
		Usage:       "clear",
		Description: "Discard the current workspace",
		Run: func(_ context.Context, _ []string) error {
			ctl.Clear()
			return nil
		},
	})
	reg.Register(&commands.Command{
		Name:        "info",
		Usage:       "info",
		Description: "Describe the current workspace",
		Run: func(_ context.Context, _ []string) error {
			return printInfo(out, ctl)
		},
	})
}

// digester is implemented by workspaces that fingerprint their image.
type digester interface {
	Digest() string
}

func printInfo(out io.Writer, ctl *workspace.Controller) error {
	ws := ctl.Current()
	if ws == nil {
		return workspace.NewExecutionError(workspace.ErrNoWorkspace, "No load image present")
	}
	fmt.Fprintln(out, ws.Description())
	if d, ok := ws.(digester); ok {
		fmt.Fprintf(out, "Image digest: %s\n", d.Digest())
	}
	if p := ctl.LastPath(); p != "" {
		fmt.Fprintf(out, "Savefile: %s\n", p)
	}
	fmt.Fprintf(out, "Search paths: %d\n", len(ctl.SearchPaths().Dirs()))
	return nil
}
