// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

// Package links persists the mapping from player names to platform ids
// (SteamID64) that players register with the linksteam command.
package links

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/claimwarden/claimwarden/internal/xdg"
)

// Error codes.
const (
	CodeInvalidDSN    = "LINKS_INVALID_DSN"
	CodeStoreFailed   = "LINKS_STORE_FAILED"
	CodeSchemaMissing = "LINKS_SCHEMA_MISSING"
	CodeQueueFull     = "LINKS_QUEUE_FULL"
	CodeClosed        = "LINKS_CLOSED"
)

// Link is one stored mapping.
type Link struct {
	Player     string // normalized player name
	PlatformID string
	LinkedAt   time.Time
}

// Store persists links. Player keys are already normalized.
type Store interface {
	Put(ctx context.Context, link Link) error
	Get(ctx context.Context, player string) (Link, bool, error)
	Close() error
}

// MemoryStore keeps links in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[string]Link
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{links: make(map[string]Link)}
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, link Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[link.Player] = link
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, player string) (Link, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.links[player]
	return l, ok, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

// Open selects a backend from dsn:
//
//   - "" or "memory" keeps links in memory
//   - "sqlite" uses links.db in the XDG data directory
//   - "sqlite://<path>" or "file:<path>" uses an SQLite file
//   - "postgres://..." or "postgresql://..." uses PostgreSQL
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return NewMemoryStore(), nil
	case dsn == "sqlite":
		path, err := xdg.LinksDatabase()
		if err != nil {
			return nil, oops.Code(CodeInvalidDSN).Wrap(err)
		}
		return OpenSQLite(ctx, path)
	case strings.HasPrefix(dsn, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"):
		return OpenSQLite(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	default:
		return nil, oops.Code(CodeInvalidDSN).Errorf("unsupported link store %q", redact(dsn))
	}
}

// redact strips credentials from a DSN for error messages.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***" + rest[at:]
	}
	return scheme + "://" + rest
}
