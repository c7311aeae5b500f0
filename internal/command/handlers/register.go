// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

// Package handlers implements the chat commands.
package handlers

import (
	"github.com/claimwarden/claimwarden/internal/command"
)

// RegisterAll registers all core command handlers with the registry.
// Panics if any registration fails (indicates a programming error).
func RegisterAll(reg *command.Registry) {
	mustRegister := func(entry command.CommandEntry) {
		if err := reg.Register(entry); err != nil {
			panic("failed to register core command " + entry.Name + ": " + err.Error())
		}
	}

	mustRegister(command.CommandEntry{
		Name:    "claim",
		Handler: ClaimHandler,
		Help:    "Claim a POI for you and nearby players",
		Usage:   "claim <poi>",
		Source:  "core",
	})

	mustRegister(command.CommandEntry{
		Name:    "join",
		Aliases: []string{"joingroup"},
		Handler: JoinHandler,
		Help:    "Join an active claim before the group enters",
		Usage:   "join <poi>",
		Source:  "core",
	})

	mustRegister(command.CommandEntry{
		Name:    "cancel",
		Handler: CancelHandler,
		Help:    "Cancel your claim without cooldown",
		Usage:   "cancel <poi>",
		Source:  "core",
	})

	mustRegister(command.CommandEntry{
		Name:    "check",
		Handler: CheckHandler,
		Help:    "Show a POI's claim state, or list available POIs",
		Usage:   "check <poi|claims>",
		Source:  "core",
	})

	mustRegister(command.CommandEntry{
		Name:    "linksteam",
		Handler: LinkSteamHandler,
		Help:    "Link your SteamID64 for teleports",
		Usage:   "linksteam <steamid>",
		Source:  "core",
	})

	mustRegister(command.CommandEntry{
		Name:    "help",
		Handler: HelpHandler,
		Help:    "List commands",
		Usage:   "help",
		Source:  "core",
	})
}
