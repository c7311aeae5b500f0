// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package handlers

import (
	"context"
	"strings"

	"github.com/claimwarden/claimwarden/internal/command"
)

// HelpHandler lists the available commands on one chat line.
func HelpHandler(ctx context.Context, exec *command.CommandExecution) error {
	if exec.Services.Registry == nil {
		writeOutput(ctx, exec, "help", "No commands available.")
		return nil
	}

	entries := exec.Services.Registry.All()
	usages := make([]string, 0, len(entries))
	for _, e := range entries {
		usage := e.Usage
		if usage == "" {
			usage = e.Name
		}
		usages = append(usages, usage)
	}
	writeOutput(ctx, exec, "help", "Commands: "+strings.Join(usages, ", "))
	return nil
}
