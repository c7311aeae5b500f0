// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package handlers

import (
	"context"
	"strings"

	"github.com/claimwarden/claimwarden/internal/command"
)

const steamIDLength = 17

func isSteamID(s string) bool {
	if len(s) != steamIDLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// LinkSteamHandler records the invoking player's SteamID64 so teleports can
// be addressed when the game server omits it. The write is asynchronous.
func LinkSteamHandler(ctx context.Context, exec *command.CommandExecution) error {
	fields := strings.Fields(exec.Args)
	if len(fields) == 0 || !isSteamID(fields[0]) {
		return command.ErrInvalidArgs(exec.InvokedAs, "linksteam <17-digit SteamID>")
	}

	if err := exec.Services.Links.Link(ctx, exec.Player, fields[0]); err != nil {
		return command.WorldError("Could not link your SteamID right now. Try again later.", err)
	}

	writeOutputf(ctx, exec, "linksteam", "%s, your SteamID has been linked.", exec.Player)
	return nil
}
