// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the countries known to the gazetteer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		r, err := newResolver()
		if err != nil {
			return err
		}

		for _, c := range r.ListCountries() {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
}
