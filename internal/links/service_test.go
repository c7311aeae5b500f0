// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package links

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/claimwarden/claimwarden/pkg/errutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingStore counts reads and can fail writes.
type recordingStore struct {
	*MemoryStore
	mu     sync.Mutex
	gets   int
	putErr error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: NewMemoryStore()}
}

func (r *recordingStore) Get(ctx context.Context, player string) (Link, bool, error) {
	r.mu.Lock()
	r.gets++
	r.mu.Unlock()
	return r.MemoryStore.Get(ctx, player)
}

func (r *recordingStore) Put(ctx context.Context, link Link) error {
	if r.putErr != nil {
		return r.putErr
	}
	return r.MemoryStore.Put(ctx, link)
}

func TestService_LinkIsVisibleImmediately(t *testing.T) {
	svc := NewService(newRecordingStore())

	require.NoError(t, svc.Link(context.Background(), "  Survivor ", "76561198000000001"))

	id, ok, err := svc.Lookup(context.Background(), "survivor")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "76561198000000001", id)
}

func TestService_LinkEmptyPlayer(t *testing.T) {
	svc := NewService(newRecordingStore())
	err := svc.Link(context.Background(), "   ", "76561198000000001")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeStoreFailed)
}

func TestService_LookupFallsBackToStore(t *testing.T) {
	store := newRecordingStore()
	require.NoError(t, store.MemoryStore.Put(context.Background(), Link{Player: "survivor", PlatformID: "76561198000000001"}))
	svc := NewService(store)

	id, ok, err := svc.Lookup(context.Background(), "Survivor")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "76561198000000001", id)

	_, _, err = svc.Lookup(context.Background(), "survivor")
	require.NoError(t, err)
	assert.Equal(t, 1, store.gets, "second lookup should be served from memory")

	_, ok, err = svc.Lookup(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_QueueFull(t *testing.T) {
	svc := NewService(newRecordingStore(), WithQueueSize(1))

	require.NoError(t, svc.Link(context.Background(), "a", "1"))
	err := svc.Link(context.Background(), "b", "2")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeQueueFull)

	// the in-memory view still reflects the dropped write
	id, ok, err := svc.Lookup(context.Background(), "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", id)
}

func TestService_RunPersistsAndDrains(t *testing.T) {
	store := newRecordingStore()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(store, WithServiceClock(func() time.Time { return at }))

	require.NoError(t, svc.Link(context.Background(), "Survivor", "76561198000000001"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, ok, _ := store.MemoryStore.Get(context.Background(), "survivor")
		return ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	got, _, err := store.MemoryStore.Get(context.Background(), "survivor")
	require.NoError(t, err)
	assert.Equal(t, Link{Player: "survivor", PlatformID: "76561198000000001", LinkedAt: at}, got)

	err = svc.Link(context.Background(), "late", "1")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeClosed)
}

func TestService_RunDrainsOnShutdown(t *testing.T) {
	store := newRecordingStore()
	svc := NewService(store)

	require.NoError(t, svc.Link(context.Background(), "a", "1"))
	require.NoError(t, svc.Link(context.Background(), "b", "2"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, svc.Run(ctx))

	for _, p := range []string{"a", "b"} {
		_, ok, err := store.MemoryStore.Get(context.Background(), p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}
}

func TestService_PersistFailureKeepsMemoryView(t *testing.T) {
	store := newRecordingStore()
	store.putErr = errors.New("disk full")
	svc := NewService(store)

	require.NoError(t, svc.Link(context.Background(), "survivor", "1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, svc.Run(ctx))

	id, ok, err := svc.Lookup(context.Background(), "survivor")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", id)
}
