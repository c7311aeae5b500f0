// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package poi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, opts ...ResolverOption) *Resolver {
	t.Helper()
	c, err := Default()
	require.NoError(t, err)
	return NewResolver(c, opts...)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Biathlon  ", "biathlon"},
		{"Big\tOil   Rig", "big oil rig"},
		{"ＢＩＡＴＨＬＯＮ", "biathlon"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestResolver_Resolve(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"alias", "biathlon", "biathlon-arena-t5"},
		{"alias with casing and spaces", "  BiAthlon ", "biathlon-arena-t5"},
		{"canonical name", "Biathlon Arena T5", "biathlon-arena-t5"},
		{"id", "biathlon-arena-t5", "biathlon-arena-t5"},
		{"misspelling", "biathalon", "biathlon-arena-t5"},
		{"multi word alias", "big oil", "svetloyarsk-oil-rig-t5"},
		{"short name", "small oil rig", "solnechny-oil-rig"},
		{"dynamic alias", "heli", "heli-crash-event"},
		{"fuzzy short name", "ghostship", "ghost-ship-event"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := r.Resolve(tt.input)
			require.True(t, ok, "expected %q to resolve", tt.input)
			assert.Equal(t, tt.want, d.ID)
		})
	}
}

func TestResolver_NoMatch(t *testing.T) {
	r := newTestResolver(t)

	for _, input := range []string{"", "   ", "qqqqqq", "xz"} {
		_, ok := r.Resolve(input)
		assert.False(t, ok, "expected %q not to resolve", input)
	}
}

func TestResolver_Deterministic(t *testing.T) {
	r := newTestResolver(t)

	first, ok := r.Resolve("rostokki")
	require.True(t, ok)
	for range 10 {
		d, ok := r.Resolve("rostokki")
		require.True(t, ok)
		assert.Equal(t, first.ID, d.ID)
	}
}

func TestResolver_Threshold(t *testing.T) {
	_, score := newTestResolver(t).Score("biathalon")
	assert.GreaterOrEqual(t, score, DefaultMatchThreshold)

	strict := newTestResolver(t, WithThreshold(0.95))
	_, ok := strict.Resolve("biathalon")
	assert.False(t, ok)

	// Exact lookups ignore the threshold.
	_, ok = strict.Resolve("biathlon")
	assert.True(t, ok)
}

func TestWithThreshold_IgnoresOutOfRange(t *testing.T) {
	r := newTestResolver(t, WithThreshold(0), WithThreshold(1.5))
	assert.InDelta(t, DefaultMatchThreshold, r.threshold, 1e-9)
}
