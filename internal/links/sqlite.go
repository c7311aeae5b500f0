// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package links

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/oops"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/claimwarden/claimwarden/internal/xdg"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS platform_links (
	player      TEXT PRIMARY KEY,
	platform_id TEXT NOT NULL,
	linked_at   TEXT NOT NULL
);`

// SQLiteStore stores links in a local SQLite file. The schema is created on open.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, oops.Code(CodeInvalidDSN).Errorf("empty sqlite path")
	}
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, oops.Code(CodeStoreFailed).With("path", path).Wrap(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.Code(CodeStoreFailed).With("path", path).Wrap(err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA busy_timeout=5000;", "PRAGMA journal_mode=WAL;", sqliteSchema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, oops.Code(CodeStoreFailed).With("path", path).Wrap(err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Put upserts a link.
func (s *SQLiteStore) Put(ctx context.Context, link Link) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO platform_links (player, platform_id, linked_at) VALUES (?, ?, ?)
		 ON CONFLICT (player) DO UPDATE SET platform_id = excluded.platform_id, linked_at = excluded.linked_at`,
		link.Player, link.PlatformID, link.LinkedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return oops.Code(CodeStoreFailed).With("operation", "put link").With("player", link.Player).Wrap(err)
	}
	return nil
}

// Get returns the link for player.
func (s *SQLiteStore) Get(ctx context.Context, player string) (Link, bool, error) {
	var id, at string
	err := s.db.QueryRowContext(ctx,
		`SELECT platform_id, linked_at FROM platform_links WHERE player = ?`, player).Scan(&id, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return Link{}, false, nil
	}
	if err != nil {
		return Link{}, false, oops.Code(CodeStoreFailed).With("operation", "get link").With("player", player).Wrap(err)
	}
	linkedAt, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return Link{}, false, oops.Code(CodeStoreFailed).With("player", player).With("linked_at", at).Wrap(err)
	}
	return Link{Player: player, PlatformID: id, LinkedAt: linkedAt}, true, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
