// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package handlers

import (
	"context"

	"github.com/claimwarden/claimwarden/internal/claim"
	"github.com/claimwarden/claimwarden/internal/command"
	"github.com/claimwarden/claimwarden/internal/poi"
	"github.com/claimwarden/claimwarden/internal/warden"
)

// inEngine runs fn on the engine loop and returns its result. A loop that is
// gone maps to CodeUnavailable. A closure that did not complete (it panicked
// and was recovered by the loop) maps to a generic player message.
func inEngine(ctx context.Context, exec *command.CommandExecution, fn func(tx *warden.Tx) error) error {
	var (
		ran    bool
		result error
	)
	err := exec.Services.Engine.Do(ctx, func(tx *warden.Tx) {
		result = fn(tx)
		ran = true
	})
	if err != nil {
		return command.ErrUnavailable(err)
	}
	if !ran {
		return command.WorldError("Something went wrong. Try again.", nil)
	}
	return result
}

// resolvePOI resolves the POI argument of exec. An empty argument yields a
// usage error; an unmatched one yields claim.CodeUnknownPOI.
func resolvePOI(exec *command.CommandExecution, usage string) (*poi.Definition, error) {
	input := command.POIArg(exec.Args)
	if input == "" {
		return nil, command.ErrInvalidArgs(exec.InvokedAs, usage)
	}
	def, ok := exec.Services.Resolver.Resolve(input)
	if !ok {
		return nil, claim.ErrUnknownPOI(input, exec.Player)
	}
	return def, nil
}
