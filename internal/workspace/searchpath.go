// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SearchPaths lists the directories searched for format resources such as
// language definition files. Directories are not validated when added.
type SearchPaths struct {
	dirs []string
}

// NewSearchPaths returns a list seeded with dirs.
func NewSearchPaths(dirs ...string) *SearchPaths {
	p := &SearchPaths{}
	for _, d := range dirs {
		p.Add(d)
	}
	return p
}

// Add appends dir to the search list.
func (p *SearchPaths) Add(dir string) {
	p.dirs = append(p.dirs, dir)
}

// Dirs returns a copy of the search list.
func (p *SearchPaths) Dirs() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.dirs...)
}

// Find returns the first existing dir/name in search order.
func (p *SearchPaths) Find(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, dir := range p.dirs {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// MatchSuffix walks every search directory and returns the regular files
// whose names end in suffix. Unreadable or missing directories are skipped.
func (p *SearchPaths) MatchSuffix(suffix string) []string {
	if p == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, dir := range p.dirs {
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && path != dir {
					return fs.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && strings.HasSuffix(d.Name(), suffix) && !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
			return nil
		})
	}
	return out
}
