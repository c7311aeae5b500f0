// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestSet_DueOrdering(t *testing.T) {
	s := NewSet()
	late := s.Schedule("b", "late", t0.Add(20*time.Second))
	first := s.Schedule("a", "first", t0.Add(10*time.Second))
	second := s.Schedule("a", "second", t0.Add(10*time.Second))
	s.Schedule("c", "future", t0.Add(time.Hour))

	due := s.Due(t0.Add(30 * time.Second))
	require.Len(t, due, 3)
	assert.Equal(t, first, due[0].Handle)
	assert.Equal(t, second, due[1].Handle)
	assert.Equal(t, late, due[2].Handle)
	assert.Equal(t, 1, s.Len(), "future task stays pending")
}

func TestSet_DueIsInclusive(t *testing.T) {
	s := NewSet()
	h := s.Schedule("a", "k", t0)

	due := s.Due(t0)
	require.Len(t, due, 1)
	assert.Equal(t, h, due[0].Handle)
	assert.False(t, s.Pending(h))
}

func TestSet_Cancel(t *testing.T) {
	s := NewSet()
	h := s.Schedule("a", "k", t0)

	assert.True(t, s.Pending(h))
	assert.True(t, s.Cancel(h))
	assert.False(t, s.Cancel(h), "second cancel is a no-op")
	assert.False(t, s.Cancel(0))
	assert.Empty(t, s.Due(t0.Add(time.Hour)))
}

func TestSet_FiredTaskCannotBeCancelled(t *testing.T) {
	s := NewSet()
	h := s.Schedule("a", "k", t0)
	s.Due(t0)

	assert.False(t, s.Cancel(h))
}

func TestSet_Clear(t *testing.T) {
	s := NewSet()
	s.Schedule("a", "1", t0)
	s.Schedule("a", "2", t0)

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Due(t0))
}

func TestSet_HandlesAreUnique(t *testing.T) {
	s := NewSet()
	seen := map[Handle]bool{}
	for range 100 {
		h := s.Schedule("a", "k", t0)
		assert.NotZero(t, h)
		assert.False(t, seen[h])
		seen[h] = true
	}
}
