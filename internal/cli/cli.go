// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Args holds parsed command-line flags.
type Args struct {
	InitScript  string
	SearchPaths []string
	ConfigPath  string
	Verbose     bool
}

// Env is the process environment a session runs in. Tests substitute the
// streams and the executable directory.
type Env struct {
	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer

	// ExeDir is where root discovery starts
	ExeDir string
}

// DefaultEnv returns the real process environment.
func DefaultEnv() Env {
	return Env{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		ExeDir: executableDir(),
	}
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the decomp command for env.
func NewRootCommand(env Env) *cobra.Command {
	var args Args

	cmd := &cobra.Command{
		Use:   "decomp",
		Short: "Interactive decompiler console",
		Long: `decomp loads program images into a workspace and drives them from a
line-oriented console. Commands are read from the terminal, from piped
input, or from scripts run with -i and the source command.`,
		Example: `  decomp -s ./processors
  decomp -i setup.txt < commands.txt
  decomp --config ./decomp.toml -v`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := Run(cmd.Context(), args, env)
			if err != nil {
				return err
			}
			if code != ExitSuccess {
				return &exitError{code: code}
			}
			return nil
		},
	}
	if env.Stdin != nil {
		cmd.SetIn(env.Stdin)
	}
	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)

	addFlags(cmd.Flags(), &args)
	return cmd
}

func addFlags(flags *pflag.FlagSet, args *Args) {
	flags.SortFlags = false
	flags.StringVarP(&args.InitScript, "init", "i", "", "run `script` first; the first error ends the session")
	flags.StringArrayVarP(&args.SearchPaths, "search-path", "s", nil, "add a resource search `path` (repeatable)")
	flags.StringVar(&args.ConfigPath, "config", "", "read configuration from `file` instead of ~/.decomp/config.toml")
	flags.BoolVarP(&args.Verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs decomp with the process arguments and returns its exit
// status.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := DefaultEnv()
	return execute(ctx, NewRootCommand(env), env.Stderr)
}

func execute(ctx context.Context, cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	if errors.Is(err, ErrNoRoot) {
		fmt.Fprintln(stderr, noRootMessage)
		return ExitFailure
	}
	fmt.Fprintln(stderr, err.Error())
	return ExitFailure
}
