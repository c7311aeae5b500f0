// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/oops"

	"github.com/claimwarden/claimwarden/internal/claim"
	"github.com/claimwarden/claimwarden/internal/command"
	"github.com/claimwarden/claimwarden/internal/poi"
	"github.com/claimwarden/claimwarden/internal/warden"
)

// CheckHandler reports the state of one POI, or lists unclaimed POIs when
// invoked as "check claims".
func CheckHandler(ctx context.Context, exec *command.CommandExecution) error {
	if poi.Normalize(exec.Args) == "claims" {
		return checkClaims(ctx, exec)
	}

	def, err := resolvePOI(exec, "check <poi> | check claims")
	if err != nil {
		if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() == claim.CodeUnknownPOI {
			input := command.POIArg(exec.Args)
			return command.WorldError(fmt.Sprintf("Unknown POI: %s. Try 'check claims'.", input), nil)
		}
		return err
	}

	var msg string
	err = inEngine(ctx, exec, func(tx *warden.Tx) error {
		c, ok := tx.Claims.Get(def.ID)
		switch {
		case !ok:
			msg = fmt.Sprintf("%s is available!", def.Name)
		case c.State == claim.Active:
			msg = fmt.Sprintf("%s is claimed by %s. Time remaining: %s",
				def.Name, c.OwnerDisplay, formatDuration(c.Remaining(tx.Now)))
		default:
			msg = fmt.Sprintf("%s is on cooldown for %s.", def.Name, formatDuration(c.Remaining(tx.Now)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	writeOutput(ctx, exec, "check", msg)
	return nil
}

func checkClaims(ctx context.Context, exec *command.CommandExecution) error {
	var available []string
	err := inEngine(ctx, exec, func(tx *warden.Tx) error {
		for _, def := range tx.Catalog.All() {
			if _, claimed := tx.Claims.Get(def.ID); claimed {
				continue
			}
			if exec.Services.Exclusions.Excluded(def) {
				continue
			}
			available = append(available, def.DisplayName())
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(available) == 0 {
		writeOutput(ctx, exec, "check", "All POIs are currently claimed.")
		return nil
	}
	writeOutput(ctx, exec, "check", "Available POIs: "+strings.Join(available, ", "))
	return nil
}
