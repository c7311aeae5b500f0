// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package command

import (
	"strings"

	"github.com/samber/oops"
)

// ParsedCommand represents a parsed command input.
type ParsedCommand struct {
	Name string // command name, lowercased, prefix removed
	Args string // argument string (preserves internal whitespace)
	Raw  string // original input
}

// Parse splits chat input into command name and arguments. An optional
// leading "!" and then "/" are stripped, so "claim", "!claim", "/claim"
// and "!/claim" are equivalent. The command name is matched
// case-insensitively.
func Parse(input string) (*ParsedCommand, error) {
	trimmed := strings.TrimSpace(input)
	trimmed = strings.TrimPrefix(trimmed, "!")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return nil, oops.Code(CodeEmptyInput).Errorf("no command provided")
	}

	idx := strings.IndexAny(trimmed, " \t")
	if idx == -1 {
		return &ParsedCommand{
			Name: strings.ToLower(trimmed),
			Raw:  input,
		}, nil
	}

	return &ParsedCommand{
		Name: strings.ToLower(trimmed[:idx]),
		Args: strings.TrimLeft(trimmed[idx+1:], " \t"),
		Raw:  input,
	}, nil
}

// POIArg extracts a POI name from command arguments: the leading run of
// letters, digits, spaces, underscores and hyphens, trimmed. Anything after
// the first other character is ignored.
func POIArg(args string) string {
	end := len(args)
	for i, r := range args {
		if !isPOIRune(r) {
			end = i
			break
		}
	}
	return strings.TrimSpace(args[:end])
}

func isPOIRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '_', r == '-':
		return true
	default:
		return false
	}
}
