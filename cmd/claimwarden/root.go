// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/claimwarden/claimwarden/internal/config"
)

// NewRootCmd creates the root command for the ClaimWarden CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil, nil)
}

func newRootCmd(serveDeps *ServeDeps, migrateDeps *MigrateDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claimwarden",
		Short: "ClaimWarden - POI claim arbitration for DayZ servers",
		Long: `ClaimWarden arbitrates exclusive, time-boxed claims over points of
interest on a CFTools-managed DayZ server. Players claim, join and cancel
through in-game chat; the warden warns and teleports intruders.`,
		SilenceUsage: true,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd(serveDeps))
	cmd.AddCommand(NewMigrateCmd(migrateDeps))
	cmd.AddCommand(NewCatalogCmd())

	return cmd
}

// loadConfig reads configuration for cmd from the XDG config file, the
// process environment and its flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.LoadOptions{File: config.DiscoverFile(), Flags: cmd.Flags()})
}
