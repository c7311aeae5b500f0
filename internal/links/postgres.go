// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package links

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// poolIface is the subset of pgxpool.Pool used by PostgresStore.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore stores links in PostgreSQL. The schema is managed by Migrator.
type PostgresStore struct {
	pool poolIface
}

// OpenPostgres connects to dsn.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code(CodeStoreFailed).With("dsn", redact(dsn)).Wrap(err)
	}
	return NewPostgresStore(pool), nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool poolIface) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Put upserts a link.
func (s *PostgresStore) Put(ctx context.Context, link Link) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO platform_links (player, platform_id, linked_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (player) DO UPDATE SET platform_id = $2, linked_at = $3`,
		link.Player, link.PlatformID, link.LinkedAt)
	if err != nil {
		return classify(err, "put link", link.Player)
	}
	return nil
}

// Get returns the link for player.
func (s *PostgresStore) Get(ctx context.Context, player string) (Link, bool, error) {
	l := Link{Player: player}
	err := s.pool.QueryRow(ctx,
		`SELECT platform_id, linked_at FROM platform_links WHERE player = $1`,
		player).Scan(&l.PlatformID, &l.LinkedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Link{}, false, nil
	}
	if err != nil {
		return Link{}, false, classify(err, "get link", player)
	}
	return l, true, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// classify maps a missing table to CodeSchemaMissing so callers can point
// the operator at the migrate command.
func classify(err error, operation, player string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return oops.Code(CodeSchemaMissing).
			With("operation", operation).
			Hint("run `claimwarden migrate up`").
			Errorf("platform_links table is missing")
	}
	return oops.Code(CodeStoreFailed).
		With("operation", operation).
		With("player", player).
		Wrap(err)
}
