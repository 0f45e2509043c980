// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/jeranaias/decomp-console/internal/arch"
	"github.com/jeranaias/decomp-console/internal/commands"
	"github.com/jeranaias/decomp-console/internal/config"
	"github.com/jeranaias/decomp-console/internal/console"
	"github.com/jeranaias/decomp-console/internal/journal"
	"github.com/jeranaias/decomp-console/internal/logging"
	"github.com/jeranaias/decomp-console/internal/workspace"
)

// Run assembles a session from args and runs it to completion. The
// returned code is the session's exit status; err is non-nil only for
// failures before the session starts.
func Run(ctx context.Context, args Args, env Env) (int, error) {
	cfg, err := loadConfig(args.ConfigPath)
	if err != nil {
		return ExitFailure, setupErr("config", err)
	}

	logger, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Verbose: args.Verbose,
		File:    cfg.Logging.File,
	})
	if err != nil {
		return ExitFailure, setupErr("logging", err)
	}
	defer func() { _ = logger.Sync() }()

	root := discoverRoot(env.ExeDir)
	if root == "" && len(args.SearchPaths) == 0 && len(cfg.Workspace.SearchPaths) == 0 {
		return ExitFailure, ErrNoRoot
	}
	logger.Debug("Startup discovery", zap.String("root", root), zap.Strings("search_paths", args.SearchPaths))

	sess, err := newSession(cfg, args, env, root, logger)
	if err != nil {
		return ExitFailure, err
	}
	defer sess.close()

	if err := sess.status.MainLoop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("Session ended abnormally", zap.Error(err))
		return ExitFailure, nil
	}
	return sess.status.ExitCode(), nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// =============================================================================
// SESSION ASSEMBLY
// =============================================================================

type session struct {
	status  *console.Status
	reader  console.LineReader
	journal *journal.Journal
	log     *zap.Logger
}

func newSession(cfg *config.Config, args Args, env Env, root string, logger *zap.Logger) (*session, error) {
	sess := &session{log: logger}

	// Writers that are not files are never terminals
	stdout, _ := env.Stdout.(*os.File)
	color := console.ColorsEnabled(cfg.Console.Color, stdout)
	console.ConfigureColor(color)

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, setupErr("journal", err)
		}
		sess.journal = j
		logger.Debug("Journal opened", zap.String("path", cfg.Journal.Path), zap.String("session", j.SessionID()))
	}

	reg := commands.NewRegistry()
	sess.reader = newReader(cfg, env, reg)

	opts := console.Options{
		Registry:     reg,
		Reader:       sess.reader,
		Output:       env.Stdout,
		Prompt:       cfg.Console.Prompt,
		Color:        color,
		HistoryLimit: cfg.Console.HistoryLimit,
		Logger:       logger.Named("console"),
	}
	if sess.journal != nil {
		opts.Journal = sess.journal
	}
	sess.status = console.New(opts)

	paths := workspace.NewSearchPaths(searchPaths(root, args.SearchPaths, cfg.Workspace.SearchPaths)...)
	ctl := workspace.NewController(workspace.Options{
		Capabilities:      workspace.NewRegistry(arch.Capabilities(paths)...),
		SearchPaths:       paths,
		ExperimentalRules: cfg.Workspace.ExperimentalRules,
		Output:            sess.status.Writer(),
		Logger:            logger.Named("workspace"),
	})
	sess.status.RegisterBuiltins()
	console.RegisterLifecycle(reg, ctl, sess.status.Writer())

	if args.InitScript != "" {
		if err := sess.status.PushScript(args.InitScript, cfg.Console.InitPrompt); err != nil {
			sess.close()
			return nil, setupErr("init script", err)
		}
		sess.status.SetErrorIsDone(true)
	}
	return sess, nil
}

// newReader picks line editing for terminals and a plain scanner for
// piped input.
func newReader(cfg *config.Config, env Env, reg *commands.Registry) console.LineReader {
	if env.Stdin != nil && console.IsTerminal(env.Stdin) {
		return console.NewTerminalReader(cfg.Console.HistoryFile, commands.NewCompleter(reg).Lines)
	}
	var in io.Reader = env.Stdin
	if env.Stdin == nil {
		in = eofReader{}
	}
	return console.NewScanReader(in)
}

func (s *session) close() {
	if s.reader != nil {
		if err := s.reader.Close(); err != nil {
			s.log.Warn("Failed to save line history", zap.Error(err))
		}
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.log.Warn("Failed to close journal", zap.Error(err))
		}
	}
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
