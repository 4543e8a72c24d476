// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/teamicebreaker/locator/server"
	"github.com/teamicebreaker/locator/store"
)

type serveOptions struct {
	Addr     string
	SeedFile string
}

var serveOpts = serveOptions{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the location API used by the questionnaire and the map",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		r, err := newResolver()
		if err != nil {
			return err
		}

		repo, db, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		if serveOpts.SeedFile != "" {
			seeded, n, err := store.SeedIfEmpty(repo, serveOpts.SeedFile)
			if err != nil {
				return fmt.Errorf("seeding placements: %w", err)
			}

			if seeded {
				log.Printf("🌱 Seeded %d placements from %s", n, serveOpts.SeedFile)
			}
		}

		g, err := newGeocoder(cmd.Context(), r)
		if err != nil {
			return err
		}

		log.Printf("📍 %d gazetteer entries loaded", r.Gazetteer().Len())

		return server.New(r, g, repo).Run(serveOpts.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOpts.Addr, "addr", "localhost:8080", "Address to listen on")
	serveCmd.Flags().StringVar(&serveOpts.SeedFile, "seed", "", "Placements JSON loaded when the database is empty")
}
