// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

// Package command provides the chat command registry, parser, dispatcher
// and the interpreter that turns inbound chat lines into claim operations.
package command

import (
	"context"
	"io"

	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/claimwarden/claimwarden/internal/poi"
	"github.com/claimwarden/claimwarden/internal/warden"
)

// CommandHandler is the function signature for command handlers.
//
//nolint:revive // stutter kept for symmetry with CommandEntry
type CommandHandler func(ctx context.Context, exec *CommandExecution) error

// CommandEntry represents a registered command.
//
//nolint:revive // stutter kept for readability at call sites
type CommandEntry struct {
	Name    string         // canonical name (e.g., "claim")
	Aliases []string       // alternative names (e.g., "joingroup")
	Handler CommandHandler // Go handler
	Help    string         // short description (one line)
	Usage   string         // usage pattern (e.g., "claim <poi>")
	Source  string         // "core"
}

// CommandExecution provides context for command execution.
//
//nolint:revive // stutter kept for readability at call sites
type CommandExecution struct {
	ID         ulid.ULID
	Player     string // display name as sent by the game server
	PlayerName string // normalized identity key
	Args       string
	InvokedAs  string
	Output     io.Writer
	Services   *Services
}

// Engine serializes access to claim state.
type Engine interface {
	Do(ctx context.Context, fn func(*warden.Tx)) error
}

// Linker persists a player's platform id. Link must not block on I/O.
type Linker interface {
	Link(ctx context.Context, player, platformID string) error
}

// Services provides access to core services for command handlers.
// Handlers MUST NOT store references to services beyond execution.
type Services struct {
	Engine     Engine
	Resolver   *poi.Resolver
	Links      Linker
	Exclusions *Exclusions
	Registry   *Registry
}

// Validate reports a missing required service.
func (s *Services) Validate() error {
	switch {
	case s == nil:
		return oops.Code(CodeNilServices).Errorf("services are nil")
	case s.Engine == nil:
		return oops.Code(CodeNilServices).With("service", "engine").Errorf("engine is required")
	case s.Resolver == nil:
		return oops.Code(CodeNilServices).With("service", "resolver").Errorf("resolver is required")
	case s.Links == nil:
		return oops.Code(CodeNilServices).With("service", "links").Errorf("links is required")
	}
	return nil
}

// Exclusions hide POIs from availability listings.
type Exclusions struct {
	patterns []string
	globs    []glob.Glob
}

// NewExclusions compiles glob patterns matched against a POI's id,
// canonical name and short name, case-insensitively.
func NewExclusions(patterns []string) (*Exclusions, error) {
	ex := &Exclusions{}
	for _, p := range patterns {
		key := poi.Normalize(p)
		if key == "" {
			continue
		}
		g, err := glob.Compile(key)
		if err != nil {
			return nil, oops.Code(CodeInvalidExclusion).With("pattern", p).Wrap(err)
		}
		ex.patterns = append(ex.patterns, key)
		ex.globs = append(ex.globs, g)
	}
	return ex, nil
}

// Excluded reports whether def is hidden from listings.
func (e *Exclusions) Excluded(def *poi.Definition) bool {
	if e == nil {
		return false
	}
	candidates := []string{def.ID, poi.Normalize(def.Name), poi.Normalize(def.ShortName)}
	for _, g := range e.globs {
		for _, c := range candidates {
			if c != "" && g.Match(c) {
				return true
			}
		}
	}
	return false
}

// Patterns returns the normalized patterns.
func (e *Exclusions) Patterns() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.patterns))
	copy(out, e.patterns)
	return out
}
