// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package handlers

import (
	"context"
	"strings"

	"github.com/claimwarden/claimwarden/internal/command"
	"github.com/claimwarden/claimwarden/internal/warden"
)

// ClaimHandler claims a POI for the invoking player. Online players close to
// the owner are grouped into the claim automatically.
func ClaimHandler(ctx context.Context, exec *command.CommandExecution) error {
	def, err := resolvePOI(exec, "claim <poi>")
	if err != nil {
		return err
	}

	var grouped []string
	err = inEngine(ctx, exec, func(tx *warden.Tx) error {
		c, err := tx.Claims.Create(def, exec.Player, tx.Roster, tx.Now)
		if err != nil {
			return err
		}
		grouped = c.Grouped()
		return nil
	})
	if err != nil {
		return err
	}

	with := ""
	if len(grouped) > 0 {
		with = " with " + strings.Join(grouped, ", ")
	}
	writeOutputf(ctx, exec, "claim", "%s claimed %s%s.", exec.Player, def.Name, with)
	return nil
}

// JoinHandler adds the invoking player to an active claim group.
func JoinHandler(ctx context.Context, exec *command.CommandExecution) error {
	def, err := resolvePOI(exec, "join <poi>")
	if err != nil {
		return err
	}

	var owner string
	err = inEngine(ctx, exec, func(tx *warden.Tx) error {
		c, err := tx.Claims.Join(def, exec.Player, tx.Roster, tx.Now)
		if err != nil {
			return err
		}
		owner = c.OwnerDisplay
		return nil
	})
	if err != nil {
		return err
	}

	writeOutputf(ctx, exec, "join", "%s joined %s's claim on %s.", exec.Player, owner, def.Name)
	return nil
}

// CancelHandler releases the invoking player's claim without cooldown.
func CancelHandler(ctx context.Context, exec *command.CommandExecution) error {
	def, err := resolvePOI(exec, "cancel <poi>")
	if err != nil {
		return err
	}

	err = inEngine(ctx, exec, func(tx *warden.Tx) error {
		_, err := tx.Claims.Cancel(def, exec.Player)
		return err
	})
	if err != nil {
		return err
	}

	writeOutputf(ctx, exec, "cancel", "%s cancelled their claim on %s.", exec.Player, def.Name)
	return nil
}
