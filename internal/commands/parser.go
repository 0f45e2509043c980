// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"
)

// =============================================================================
// TOKENIZER
// =============================================================================

// Tokenize splits a console line into tokens, respecting quotes.
// Single and double quotes group words; a backslash inside quotes escapes
// a quote or another backslash.
func Tokenize(line string) []string {
	tokens, _ := split(line)
	return tokens
}

// split tokenizes line and reports whether it ends inside an open token
// (no trailing space, or an unterminated quote).
func split(line string) ([]string, bool) {
	var tokens []string
	var current strings.Builder
	var inSingle, inDouble, started bool

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			started = true

		case r == '"' && !inSingle:
			inDouble = !inDouble
			started = true

		case r == '\\' && i+1 < len(runes) && (inDouble || inSingle):
			next := runes[i+1]
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(r)
			}

		case unicode.IsSpace(r) && !inSingle && !inDouble:
			if started {
				tokens = append(tokens, current.String())
				current.Reset()
				started = false
			}

		default:
			current.WriteRune(r)
			started = true
		}
	}

	if started {
		tokens = append(tokens, current.String())
	}
	return tokens, started
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// IsComment reports whether a script line is blank or a '#' comment.
func IsComment(line string) bool {
	line = strings.TrimSpace(line)
	return line == "" || strings.HasPrefix(line, "#")
}

// PartialToken splits line into the finished tokens and the token still
// being typed, which is "" after trailing whitespace.
func PartialToken(line string) ([]string, string) {
	tokens, open := split(line)
	if !open || len(tokens) == 0 {
		return tokens, ""
	}
	return tokens[:len(tokens)-1], tokens[len(tokens)-1]
}
