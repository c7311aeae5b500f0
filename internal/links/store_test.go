// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package links

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimwarden/claimwarden/pkg/errutil"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, found, err := store.Get(ctx, "survivor")
	require.NoError(t, err)
	assert.False(t, found)

	link := Link{Player: "survivor", PlatformID: "76561198000000001", LinkedAt: time.Now()}
	require.NoError(t, store.Put(ctx, link))

	got, found, err := store.Get(ctx, "survivor")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, link, got)
	assert.NoError(t, store.Close())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		for _, dsn := range []string{"", "memory"} {
			store, err := Open(ctx, dsn)
			require.NoError(t, err)
			assert.IsType(t, &MemoryStore{}, store)
		}
	})

	t.Run("sqlite scheme", func(t *testing.T) {
		store, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "links.db"))
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &SQLiteStore{}, store)
	})

	t.Run("sqlite in data dir", func(t *testing.T) {
		dataHome := t.TempDir()
		t.Setenv("XDG_DATA_HOME", dataHome)

		store, err := Open(ctx, "sqlite")
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &SQLiteStore{}, store)
		assert.FileExists(t, filepath.Join(dataHome, "claimwarden", "links.db"))
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := Open(ctx, "mysql://user:hunter2@db/links")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, CodeInvalidDSN)
		assert.NotContains(t, err.Error(), "hunter2")
	})
}

func TestRedact(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://user:secret@db:5432/links", "postgres://***@db:5432/links"},
		{"postgres://db:5432/links", "postgres://db:5432/links"},
		{"memory", "memory"},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, redact(tt.dsn))
		})
	}
}
