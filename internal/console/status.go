// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/jeranaias/decomp-console/internal/commands"
	"github.com/jeranaias/decomp-console/internal/journal"
	"github.com/jeranaias/decomp-console/internal/workspace"
)

// Journal persists executed command lines. *journal.Journal satisfies it.
type Journal interface {
	Record(ctx context.Context, e journal.Entry) error
	Recent(ctx context.Context, n int) ([]journal.Entry, error)
}

// DefaultHistoryLimit caps in-memory history when Options leaves it zero.
const DefaultHistoryLimit = 1000

// Options configures a Status.
type Options struct {
	// Registry resolves command lines. Required.
	Registry *commands.Registry

	// Reader supplies interactive input. Nil means scripts only.
	Reader LineReader

	// Output is the default output sink. Defaults to os.Stdout.
	Output io.Writer

	// Prompt is shown for interactive input.
	Prompt string

	// Color enables styled error lines on the default sink.
	Color bool

	// HistoryLimit caps in-memory history.
	HistoryLimit int

	// Journal, when set, records every executed line.
	Journal Journal

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// frame is one script on the script stack.
type frame struct {
	name   string
	prompt string
	sc     *bufio.Scanner
	file   io.Closer
}

// =============================================================================
// STATUS
// =============================================================================

// Status is the state of one console session. It is used from a single
// goroutine.
type Status struct {
	reg    *commands.Registry
	reader LineReader
	log    *zap.Logger
	jrnl   Journal
	color  bool

	stdout   io.Writer // default sink
	out      io.Writer // current sink
	sinkFile *os.File  // set while openfile is active

	prompt  string
	scripts []*frame

	errorIsDone bool
	inError     bool
	done        bool

	history      []string
	historyLimit int
}

// New creates a session in the Interactive state.
func New(opts Options) *Status {
	s := &Status{
		reg:          opts.Registry,
		reader:       opts.Reader,
		log:          opts.Logger,
		jrnl:         opts.Journal,
		color:        opts.Color,
		stdout:       opts.Output,
		prompt:       opts.Prompt,
		historyLimit: opts.HistoryLimit,
	}
	if s.reg == nil {
		s.reg = commands.NewRegistry()
	}
	if s.stdout == nil {
		s.stdout = os.Stdout
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.historyLimit <= 0 {
		s.historyLimit = DefaultHistoryLimit
	}
	s.out = s.stdout
	return s
}

// Registry returns the session's command registry.
func (s *Status) Registry() *commands.Registry { return s.reg }

// Writer returns a writer that always targets the current output sink,
// following openfile/closefile redirections.
func (s *Status) Writer() io.Writer { return sinkWriter{s} }

type sinkWriter struct{ s *Status }

func (w sinkWriter) Write(p []byte) (int, error) { return w.s.out.Write(p) }

// SetErrorIsDone makes the first command error end the session.
func (s *Status) SetErrorIsDone(v bool) { s.errorIsDone = v }

// IsInError reports whether the session ended because of an error.
func (s *Status) IsInError() bool { return s.inError }

// IsDone reports whether the session has finished.
func (s *Status) IsDone() bool { return s.done }

// Quit ends the session without error.
func (s *Status) Quit() { s.done = true }

// ExitCode is 1 when the session ended in error, otherwise 0.
func (s *Status) ExitCode() int {
	if s.inError {
		return 1
	}
	return 0
}

// Prompt returns the prompt for the current input source.
func (s *Status) Prompt() string {
	if n := len(s.scripts); n > 0 {
		return s.scripts[n-1].prompt
	}
	return s.prompt
}

// Depth returns the number of scripts on the stack.
func (s *Status) Depth() int { return len(s.scripts) }

// =============================================================================
// SCRIPT STACK
// =============================================================================

// PushScript makes the script at path the current input source. Its lines
// are read before the rest of the source that pushed it.
func (s *Status) PushScript(path, prompt string) error {
	f, err := os.Open(path)
	if err != nil {
		return &workspace.ParseError{Msg: "Unable to open script file: " + path, Err: err}
	}
	s.pushFrame(path, prompt, f, f)
	return nil
}

// PushReader pushes an in-memory script.
func (s *Status) PushReader(name, prompt string, r io.Reader) {
	s.pushFrame(name, prompt, r, nil)
}

func (s *Status) pushFrame(name, prompt string, r io.Reader, c io.Closer) {
	s.scripts = append(s.scripts, &frame{name: name, prompt: prompt, sc: newLineScanner(r), file: c})
	s.log.Debug("Script pushed", zap.String("script", name), zap.Int("depth", len(s.scripts)))
}

// PopScript discards the current script.
func (s *Status) PopScript() {
	n := len(s.scripts)
	if n == 0 {
		return
	}
	top := s.scripts[n-1]
	s.scripts = s.scripts[:n-1]
	if top.file != nil {
		top.file.Close()
	}
	s.log.Debug("Script finished", zap.String("script", top.name), zap.Int("depth", n-1))
}

// =============================================================================
// MAIN LOOP
// =============================================================================

// MainLoop reads and executes lines until the session is done: quit, an
// error with error-is-done set, the end of interactive input, or ctx
// cancellation. Exhausted scripts are popped as they run dry.
func (s *Status) MainLoop(ctx context.Context) error {
	defer func() {
		// Close scripts left open when the loop stops early
		for len(s.scripts) > 0 {
			s.PopScript()
		}
		if s.sinkFile != nil {
			s.closeSink()
		}
	}()
	for !s.done {
		if err := ctx.Err(); err != nil {
			s.done = true
			return err
		}

		line, source, err := s.nextLine()
		if errors.Is(err, io.EOF) {
			if len(s.scripts) > 0 {
				s.PopScript()
				continue
			}
			s.done = true
			break
		}
		if err != nil {
			s.done = true
			return fmt.Errorf("failed to read input: %w", err)
		}

		s.RunLine(ctx, source, line)
	}
	return nil
}

// nextLine reads from the top script, or interactive input when the stack
// is empty. Script lines are echoed after their prompt.
func (s *Status) nextLine() (line, source string, err error) {
	if n := len(s.scripts); n > 0 {
		top := s.scripts[n-1]
		if !top.sc.Scan() {
			if err := top.sc.Err(); err != nil {
				return "", top.name, err
			}
			return "", top.name, io.EOF
		}
		line = top.sc.Text()
		fmt.Fprintf(s.out, "%s%s\n", top.prompt, line)
		return line, top.name, nil
	}

	if s.reader == nil {
		return "", journal.SourceInteractive, io.EOF
	}
	line, err = s.reader.ReadLine(s.prompt)
	return line, journal.SourceInteractive, err
}

// RunLine executes one command line from source. Blank lines and '#'
// comments are ignored. Failures are reported, not returned.
func (s *Status) RunLine(ctx context.Context, source, line string) {
	if commands.IsComment(line) {
		return
	}
	s.remember(line)
	s.log.Debug("Executing command", zap.String("source", source), zap.String("line", line))

	err := s.execute(ctx, line)
	status := journal.StatusOK
	msg := ""
	if err != nil {
		status, msg = s.report(err)
	}
	s.record(ctx, journal.Entry{Source: source, Line: line, Status: status, Message: msg})
}

func (s *Status) execute(ctx context.Context, line string) error {
	tokens := commands.Tokenize(line)
	cmd, args, err := s.reg.Resolve(tokens)
	if err != nil {
		var amb *commands.AmbiguousError
		if errors.As(err, &amb) {
			return &workspace.ParseError{Msg: amb.Error(), Err: err}
		}
		return &workspace.ParseError{Msg: "Invalid command: " + tokens[0], Err: err}
	}
	return cmd.Run(ctx, args)
}

// =============================================================================
// ERROR HANDLING
// =============================================================================

// report writes err to the output sink and updates the error state.
// Errors that are neither parse nor execution errors count as execution
// errors.
func (s *Status) report(err error) (journal.Status, string) {
	msg := err.Error()
	status := journal.StatusExecutionError
	text := "Execution error: " + msg

	var pe *workspace.ParseError
	if errors.As(err, &pe) {
		status = journal.StatusParseError
		text = "Command parsing error: " + msg
	}

	fmt.Fprintln(s.out, s.styled(errorStyle.Render, text))
	s.log.Debug("Command failed", zap.String("kind", string(status)), zap.Error(err))
	s.evaluateError()
	return status, msg
}

// evaluateError ends the session after an error when error-is-done is set.
func (s *Status) evaluateError() {
	if !s.errorIsDone {
		return
	}
	fmt.Fprintln(s.out, "Aborting process")
	s.inError = true
	s.done = true
}

// styled applies render only when writing colored output to the default
// sink.
func (s *Status) styled(render func(...string) string, text string) string {
	if !s.color || s.sinkFile != nil {
		return text
	}
	return render(text)
}

// =============================================================================
// HISTORY
// =============================================================================

func (s *Status) remember(line string) {
	s.history = append(s.history, line)
	if over := len(s.history) - s.historyLimit; over > 0 {
		s.history = append([]string(nil), s.history[over:]...)
	}
}

func (s *Status) record(ctx context.Context, e journal.Entry) {
	if s.jrnl == nil {
		return
	}
	if err := s.jrnl.Record(ctx, e); err != nil {
		s.log.Warn("Journal write failed", zap.Error(err))
	}
}

// History returns up to n recent lines, oldest first. The journal is used
// when configured, so history spans earlier sessions.
func (s *Status) History(ctx context.Context, n int) []string {
	if n <= 0 {
		return nil
	}
	if s.jrnl != nil {
		entries, err := s.jrnl.Recent(ctx, n)
		if err == nil {
			lines := make([]string, len(entries))
			for i, e := range entries {
				lines[i] = e.Line
			}
			return lines
		}
		s.log.Warn("Journal read failed", zap.Error(err))
	}
	if n > len(s.history) {
		n = len(s.history)
	}
	return append([]string(nil), s.history[len(s.history)-n:]...)
}

// =============================================================================
// OUTPUT SINK
// =============================================================================

func (s *Status) openSink(path string, appendMode bool) error {
	if s.sinkFile != nil {
		return workspace.NewExecutionError(nil, "Output file already opened")
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return &workspace.ExecutionError{Msg: "Unable to open file: " + path, Err: err}
	}
	s.sinkFile = f
	s.out = f
	s.log.Debug("Output redirected", zap.String("file", path), zap.Bool("append", appendMode))
	return nil
}

func (s *Status) closeSink() error {
	if s.sinkFile == nil {
		return workspace.NewExecutionError(nil, "Output file not opened")
	}
	err := s.sinkFile.Close()
	s.sinkFile = nil
	s.out = s.stdout
	if err != nil {
		return &workspace.ExecutionError{Msg: "Unable to close output file", Err: err}
	}
	return nil
}
