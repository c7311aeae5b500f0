// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimwarden/claimwarden/internal/command"
	"github.com/claimwarden/claimwarden/pkg/errutil"
)

func TestCheckHandler(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run(CheckHandler, "check", "Alice", "tisy")
		require.NoError(t, err)
		assert.Equal(t, "Tisy Military T5 is available!\n", out)
	})

	t.Run("claimed shows owner and remaining time", func(t *testing.T) {
		h := newHarness(t)
		h.engine.place("Alice", 1000, 1000)
		_, err := h.run(ClaimHandler, "claim", "Alice", "gm")
		require.NoError(t, err)

		h.engine.now = t0.Add(14*time.Minute + 30*time.Second)
		out, err := h.run(CheckHandler, "check", "Bob", "gm")
		require.NoError(t, err)
		assert.Equal(t, "Green Mountain T3 is claimed by Alice. Time remaining: 30m 30s\n", out)
	})

	t.Run("cooldown", func(t *testing.T) {
		h := newHarness(t)
		h.engine.place("Alice", 1000, 1000)
		_, err := h.run(ClaimHandler, "claim", "Alice", "gm")
		require.NoError(t, err)
		_, ok := h.engine.claims.StartCooldown("green-mountain-t3", t0, false)
		require.True(t, ok)

		h.engine.now = t0.Add(5 * time.Minute)
		out, err := h.run(CheckHandler, "check", "Bob", "gm")
		require.NoError(t, err)
		assert.Equal(t, "Green Mountain T3 is on cooldown for 40m 0s.\n", out)
	})

	t.Run("unknown poi suggests listing", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run(CheckHandler, "check", "Alice", "nowhere")
		errutil.AssertErrorCode(t, err, command.CodeWorldError)
		assert.Equal(t, "Unknown POI: nowhere. Try 'check claims'.", command.PlayerMessage(err))
	})
}

func TestCheckClaims(t *testing.T) {
	t.Run("lists unclaimed pois by display name", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run(CheckHandler, "check", "Alice", "claims")
		require.NoError(t, err)
		assert.Equal(t, "Available POIs: Green Mountain, Tisy\n", out)
	})

	t.Run("omits claimed and excluded pois", func(t *testing.T) {
		h := newHarness(t, "tisy*")
		h.engine.place("Alice", 1000, 1000)
		_, err := h.run(ClaimHandler, "claim", "Alice", "gm")
		require.NoError(t, err)

		out, err := h.run(CheckHandler, "check", "Alice", "Claims")
		require.NoError(t, err)
		assert.Equal(t, "All POIs are currently claimed.\n", out)
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0m 0s"},
		{-time.Minute, "0m 0s"},
		{59*time.Second + 900*time.Millisecond, "0m 59s"},
		{15*time.Minute + 30*time.Second, "15m 30s"},
		{90 * time.Minute, "90m 0s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in), tt.in.String())
	}
}
