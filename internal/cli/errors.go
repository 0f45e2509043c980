// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates the session ended normally
	ExitSuccess = 0
	// ExitFailure covers setup failures and sessions ended by an error
	ExitFailure = 1
)

// ErrNoRoot is returned when no processor root can be found and no search
// path was given.
var ErrNoRoot = errors.New("could not discover root of Ghidra installation")

// noRootMessage is the line printed for ErrNoRoot.
const noRootMessage = "Could not discover root of Ghidra installation"

// =============================================================================
// SETUP ERRORS
// =============================================================================

// SetupError is a failure while assembling the session, before any command
// runs.
type SetupError struct {
	Stage string // e.g. "config", "logging", "journal", "init script"
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("Interface error during setup: %s: %v", e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

func setupErr(stage string, err error) error {
	return &SetupError{Stage: stage, Err: err}
}

// exitError carries a non-zero session exit status out of cobra's RunE
// without printing anything further.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
