// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	ErrAlreadyLoaded      = errors.New("workspace already loaded")
	ErrUnrecognizedFormat = errors.New("unrecognized format")
	ErrNoWorkspace        = errors.New("no workspace loaded")
	ErrMissingFileName    = errors.New("missing file name")
	ErrCannotOpenFile     = errors.New("cannot open file")
	ErrMissingPath        = errors.New("missing path")
	ErrDocument           = errors.New("document error")
)

// =============================================================================
// COMMAND ERROR KINDS
// =============================================================================

// ParseError reports a malformed command invocation.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	return e.Msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExecutionError reports a violated precondition or a failed operation.
type ExecutionError struct {
	Msg string
	Err error
}

func (e *ExecutionError) Error() string {
	return e.Msg
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewParseError returns a ParseError matching kind under errors.Is.
func NewParseError(kind error, msg string) *ParseError {
	return &ParseError{Msg: msg, Err: kind}
}

// NewExecutionError returns an ExecutionError matching kind under errors.Is.
func NewExecutionError(kind error, format string, args ...any) *ExecutionError {
	return &ExecutionError{Msg: fmt.Sprintf(format, args...), Err: kind}
}

// =============================================================================
// CONSTRUCTION ERRORS
// =============================================================================

// LowLevelError is raised by a workspace when its image or language
// resources cannot be turned into a usable configuration.
type LowLevelError struct {
	Msg string
	Err error
}

func (e *LowLevelError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *LowLevelError) Unwrap() error {
	return e.Err
}

// LowLevelf builds a LowLevelError from a format string.
func LowLevelf(format string, args ...any) *LowLevelError {
	return &LowLevelError{Msg: fmt.Sprintf(format, args...)}
}

// multiErr joins a kind sentinel with a cause so errors.Is finds both.
type multiErr struct {
	kind  error
	cause error
}

func (m multiErr) Error() string   { return m.cause.Error() }
func (m multiErr) Unwrap() []error { return []error{m.kind, m.cause} }

func withKind(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return multiErr{kind: kind, cause: cause}
}
