// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package command

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry manages command registration and lookup.
// It is thread-safe for concurrent access.
type Registry struct {
	commands map[string]CommandEntry
	aliases  map[string]string
	mu       sync.RWMutex
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]CommandEntry),
		aliases:  make(map[string]string),
	}
}

// Register adds a command to the registry.
// If a command with the same name exists, it is overwritten and a warning is logged.
func (r *Registry) Register(entry CommandEntry) error {
	if entry.Name == "" {
		return ErrInvalidEntry("name is required")
	}
	if entry.Handler == nil {
		return ErrInvalidEntry("handler is required for " + entry.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.commands[entry.Name]; ok {
		slog.Warn("command conflict: overwriting existing command",
			"command", entry.Name,
			"previous_source", existing.Source,
			"new_source", entry.Source)
	}

	r.commands[entry.Name] = entry
	for _, a := range entry.Aliases {
		r.aliases[a] = entry.Name
	}
	return nil
}

// Get retrieves a command by name or alias.
// Returns the command entry and true if found, or zero value and false if not found.
func (r *Registry) Get(name string) (CommandEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	entry, ok := r.commands[name]
	return entry, ok
}

// All returns all registered commands ordered by name.
// The returned slice is a copy and safe to modify.
func (r *Registry) All() []CommandEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]CommandEntry, 0, len(r.commands))
	for _, e := range r.commands {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
