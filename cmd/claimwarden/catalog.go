// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package main

import (
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/claimwarden/claimwarden/internal/poi"
)

// NewCatalogCmd creates the catalog command group.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect POI catalogs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a POI catalog file",
		Long: `Validate a catalog against its JSON Schema and the rules the schema
cannot express. Without a file the configured or built-in catalog is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				path = cfg.Catalog.File
			}
			return runCatalogValidate(cmd, path)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "resolve <text>",
		Short: "Show which POI a player's text resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg.Catalog.File)
			if err != nil {
				return err
			}
			resolver := poi.NewResolver(catalog, poi.WithThreshold(cfg.Catalog.MatchThreshold))
			return runCatalogResolve(cmd, resolver, strings.Join(args, " "))
		},
	})

	return cmd
}

func runCatalogValidate(cmd *cobra.Command, path string) error {
	var (
		catalog *poi.Catalog
		err     error
	)
	name := path
	if path == "" {
		name = "built-in catalog"
		catalog, err = poi.Default()
	} else {
		var data []byte
		data, err = os.ReadFile(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return oops.Code(poi.CodeInvalidCatalog).With("path", path).Wrap(err)
		}
		if schemaErr := poi.ValidateSchema(data); schemaErr != nil {
			cmd.PrintErrf("%s: %s\n", name, poi.FormatSchemaError(schemaErr))
			return oops.Code(poi.CodeInvalidCatalog).With("path", path).Wrap(schemaErr)
		}
		catalog, err = poi.Parse(data)
	}
	if err != nil {
		cmd.PrintErrf("%s: %v\n", name, err)
		return err
	}

	zoned := len(catalog.Zoned())
	cmd.Printf("%s: OK (%d POIs, %d with zones, %d dynamic)\n", name, catalog.Len(), zoned, catalog.Len()-zoned)
	return nil
}

func runCatalogResolve(cmd *cobra.Command, resolver *poi.Resolver, text string) error {
	def, ok := resolver.Resolve(text)
	if !ok {
		id, score := resolver.Score(text)
		if id != "" {
			cmd.Printf("%q does not match any POI (closest: %s, score %.2f)\n", text, id, score)
		} else {
			cmd.Printf("%q does not match any POI\n", text)
		}
		return oops.Code("UNKNOWN_POI").With("input", text).Errorf("no POI matches %q", text)
	}
	cmd.Printf("%q -> %s (%s)\n", text, def.Name, def.ID)
	return nil
}
