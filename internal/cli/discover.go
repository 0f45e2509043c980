// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"path/filepath"
)

const (
	// rootMarker identifies the top of an installation tree
	rootMarker = "application.properties"

	// rootEnv names an installation root when discovery fails
	rootEnv = "SLEIGHHOME"
)

// processorsDir is where language definitions live under a root.
var processorsDir = filepath.Join("Ghidra", "Processors")

// discoverRoot walks up from start looking for a directory holding the
// root marker, then falls back to $SLEIGHHOME. It returns "" when neither
// yields a root.
func discoverRoot(start string) string {
	dir := filepath.Clean(start)
	for {
		if fileExists(filepath.Join(dir, rootMarker)) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return os.Getenv(rootEnv)
}

// executableDir returns the directory of the running binary, or "" when it
// cannot be determined.
func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// searchPaths orders the initial resource directories: the root's
// processor directory when present, then -s paths, then configured paths.
func searchPaths(root string, flagPaths, configPaths []string) []string {
	var paths []string
	if root != "" {
		if proc := filepath.Join(root, processorsDir); dirExists(proc) {
			paths = append(paths, proc)
		}
	}
	paths = append(paths, flagPaths...)
	paths = append(paths, configPaths...)
	return paths
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
