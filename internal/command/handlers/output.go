// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claimwarden/claimwarden/internal/command"
	"github.com/claimwarden/claimwarden/internal/observability"
)

// logOutputError logs a write failure without failing the command.
func logOutputError(ctx context.Context, cmd, player string, bytesWritten int, err error) {
	slog.WarnContext(ctx, "failed to write command output",
		"command", cmd,
		"player", player,
		"bytes_written", bytesWritten,
		"error", err,
	)
	observability.RecordCommandOutputFailure(cmd)
}

// writeOutput writes a message line to the command output and logs any errors.
func writeOutput(ctx context.Context, exec *command.CommandExecution, cmd, msg string) {
	if n, err := fmt.Fprintln(exec.Output, msg); err != nil {
		logOutputError(ctx, cmd, exec.Player, n, err)
	}
}

// writeOutputf writes a formatted message line to the command output.
func writeOutputf(ctx context.Context, exec *command.CommandExecution, cmd, format string, args ...any) {
	writeOutput(ctx, exec, cmd, fmt.Sprintf(format, args...))
}

// formatDuration renders d as whole minutes and seconds, e.g. "15m 30s".
// Negative durations render as zero.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}
