// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teamicebreaker/locator/store"
	"github.com/teamicebreaker/locator/utils/textutils"
)

const placementsFile = "placements.json"

var placementsOpts struct {
	File  string
	Force bool
}

var placementsCmd = &cobra.Command{
	Use:   "placements",
	Short: "Manage stored placements",
}

var placementsStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Export placements to a file",
	Long:  `Exports all placements from the database to a local JSON file. The file is sorted to minimize diffs when checking into version control.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, db, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := store.ExportJSON(repo, placementsOpts.File)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Exported %s placements to %s\n", textutils.FormatInt(int64(n)), placementsOpts.File)

		return nil
	},
}

var placementsLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Import placements from a file",
	Long: `Imports placements from the local JSON file when the placements table is
empty. With --force, the file is merged into an existing table.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, db, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		if placementsOpts.Force {
			n, err := store.ImportJSON(repo, placementsOpts.File)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %s placements from %s\n", textutils.FormatInt(int64(n)), placementsOpts.File)

			return nil
		}

		seeded, n, err := store.SeedIfEmpty(repo, placementsOpts.File)
		if err != nil {
			return err
		}

		if !seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "Placements table is not empty, nothing imported (use --force to merge)")

			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %s placements from %s\n", textutils.FormatInt(int64(n)), placementsOpts.File)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(placementsCmd)
	placementsCmd.AddCommand(placementsStoreCmd)
	placementsCmd.AddCommand(placementsLoadCmd)
	placementsCmd.PersistentFlags().StringVar(&placementsOpts.File, "file", placementsFile, "Placements JSON file")
	placementsLoadCmd.Flags().BoolVar(&placementsOpts.Force, "force", false, "Import even when placements already exist")
}
