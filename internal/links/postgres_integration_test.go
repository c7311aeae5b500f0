//go:build integration

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package links_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/claimwarden/claimwarden/internal/links"
	"github.com/claimwarden/claimwarden/pkg/errutil"
)

func TestPostgresStore_FullCycle(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := links.Open(ctx, connStr)
	require.NoError(t, err)
	defer store.Close()

	// Before migrating, writes point at the migrate command.
	err = store.Put(ctx, links.Link{Player: "survivor", PlatformID: "76561198000000001", LinkedAt: time.Now()})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, links.CodeSchemaMissing)

	migrator, err := links.NewMigrator(connStr)
	require.NoError(t, err)
	defer migrator.Close()

	pending, err := migrator.PendingMigrations()
	require.NoError(t, err)
	assert.NotEmpty(t, pending)

	require.NoError(t, migrator.Up())
	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	at := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, store.Put(ctx, links.Link{Player: "survivor", PlatformID: "76561198000000001", LinkedAt: at}))
	require.NoError(t, store.Put(ctx, links.Link{Player: "survivor", PlatformID: "76561198000000002", LinkedAt: at}))

	got, found, err := store.Get(ctx, "survivor")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "76561198000000002", got.PlatformID)
	assert.True(t, at.Equal(got.LinkedAt))

	require.NoError(t, migrator.Down())
	version, _, err = migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
}
