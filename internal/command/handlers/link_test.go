// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package handlers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimwarden/claimwarden/internal/command"
	"github.com/claimwarden/claimwarden/pkg/errutil"
)

func TestLinkSteamHandler(t *testing.T) {
	t.Run("links a 17 digit id", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run(LinkSteamHandler, "linksteam", "Alice", "76561198000000001")
		require.NoError(t, err)
		assert.Equal(t, "Alice, your SteamID has been linked.\n", out)
		assert.Equal(t, "76561198000000001", h.links.links["Alice"])
	})

	for _, args := range []string{"", "1234", "7656119800000000x", "765611980000000012"} {
		t.Run("rejects "+args, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.run(LinkSteamHandler, "linksteam", "Alice", args)
			errutil.AssertErrorCode(t, err, command.CodeInvalidArgs)
			assert.Empty(t, h.links.links)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		h := newHarness(t)
		h.links.err = errors.New("queue closed")
		_, err := h.run(LinkSteamHandler, "linksteam", "Alice", "76561198000000001")
		errutil.AssertErrorCode(t, err, command.CodeWorldError)
	})
}

func TestHelpHandler(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(HelpHandler, "help", "Alice", "")
	require.NoError(t, err)
	assert.Equal(t,
		"Commands: cancel <poi>, check <poi|claims>, claim <poi>, help, join <poi>, linksteam <steamid>\n",
		out)
}

func TestRegisterAll(t *testing.T) {
	reg := command.NewRegistry()
	RegisterAll(reg)

	for _, name := range []string{"claim", "join", "joingroup", "cancel", "check", "linksteam", "help"} {
		_, ok := reg.Get(name)
		assert.True(t, ok, name)
	}
	entry, _ := reg.Get("joingroup")
	assert.Equal(t, "join", entry.Name)
}
