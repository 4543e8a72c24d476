// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/spf13/cobra"
	"github.com/teamicebreaker/locator/gazetteer"
	"github.com/teamicebreaker/locator/geocoder"
	"github.com/teamicebreaker/locator/resolver"
	"github.com/teamicebreaker/locator/store"
	"github.com/teamicebreaker/locator/utils/httputils"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "locator",
	Short: "resolve free-form places to map coordinates",
	Long: `
locator turns the place names typed by icebreaker participants into
coordinates on a shared map. It resolves names against a built-in gazetteer,
optionally falls back to Google Maps, and keeps the placements in DuckDB.
`,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

type resolverOptions struct {
	GazetteerPath    string
	HighThreshold    float64
	MediumThreshold  float64
	LowThreshold     float64
	Limit            int
	MinSuggestLength int
}

type storeOptions struct {
	DBPath string
}

type remoteOptions struct {
	Disabled      bool
	TraceHTTP     bool
	TraceHTTPBody bool
}

var (
	resolverOpts = resolverOptions{}
	storeOpts    = storeOptions{}
	remoteOpts   = remoteOptions{}
)

const dbFile = "locator.duckdb"

// newResolver builds the resolver from the embedded gazetteer or the one
// given with --gazetteer.
func newResolver() (*resolver.Resolver, error) {
	var (
		g   *gazetteer.Gazetteer
		err error
	)

	if resolverOpts.GazetteerPath != "" {
		g, err = gazetteer.LoadFile(resolverOpts.GazetteerPath)
	} else {
		g, err = gazetteer.Default()
	}

	if err != nil {
		return nil, fmt.Errorf("loading gazetteer: %w", err)
	}

	cfg := resolver.DefaultConfig()
	cfg.HighThreshold = resolverOpts.HighThreshold
	cfg.MediumThreshold = resolverOpts.MediumThreshold
	cfg.LowThreshold = resolverOpts.LowThreshold
	cfg.Limit = resolverOpts.Limit
	cfg.MinSuggestLength = resolverOpts.MinSuggestLength

	r, err := resolver.New(g, cfg)
	if err != nil {
		return nil, fmt.Errorf("configuring resolver: %w", err)
	}

	return r, nil
}

// openRepository opens the placements database under --db-path and makes
// sure the schema exists. The caller closes the returned db.
func openRepository() (store.Repository, *sql.DB, error) {
	if err := os.MkdirAll(storeOpts.DBPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(storeOpts.DBPath, dbFile))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := store.NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating placements schema: %w", err)
	}

	return repo, db, nil
}

// newGeocoder chains the resolver with Google Maps when an API key can be
// found. Without a key the chain only uses the gazetteer.
func newGeocoder(ctx context.Context, r *resolver.Resolver) (geocoder.Geocoder, error) {
	var remote geocoder.Geocoder

	if !remoteOpts.Disabled {
		if apiKey := geocoder.APIKeyFromEnv(ctx, geocoder.DefaultAPIKeyDisplayName); apiKey != "" {
			var trace io.Writer
			if remoteOpts.TraceHTTP {
				trace = os.Stderr
			}

			remote = geocoder.NewGoogleMapsGeocoder(geocoder.GoogleMapsConfig{
				APIKey: apiKey,
				Transport: httputils.NewTransport(
					nil,
					map[string]string{
						"User-Agent": fmt.Sprintf("locator/%s (+https://github.com/teamicebreaker/locator)", Version),
					},
					trace,
					remoteOpts.TraceHTTPBody,
				),
			})
		} else {
			log.Println("⚠️  No Google Maps API key found, using the gazetteer only")
		}
	}

	chain, err := geocoder.NewChain(geocoder.NewStatic(r), remote, geocoder.DefaultChainConfig())
	if err != nil {
		return nil, fmt.Errorf("building geocoder: %w", err)
	}

	return chain, nil
}

func init() {
	def := resolver.DefaultConfig()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&storeOpts.DBPath, "db-path", "db", "Directory holding the placements database")
	flags.StringVar(&resolverOpts.GazetteerPath, "gazetteer", "", "JSON gazetteer replacing the built-in one")
	flags.Float64Var(&resolverOpts.HighThreshold, "high-threshold", def.HighThreshold, "Similarity above which a fuzzy match is high confidence")
	flags.Float64Var(&resolverOpts.MediumThreshold, "medium-threshold", def.MediumThreshold, "Similarity above which a fuzzy match is medium confidence")
	flags.Float64Var(&resolverOpts.LowThreshold, "low-threshold", def.LowThreshold, "Similarity above which a fuzzy match is kept at all")
	flags.IntVar(&resolverOpts.Limit, "limit", def.Limit, "Maximum number of suggestions")
	flags.IntVar(&resolverOpts.MinSuggestLength, "min-suggest-length", def.MinSuggestLength, "Shortest query that gets suggestions")
	flags.BoolVar(&remoteOpts.Disabled, "offline", false, "Never call the remote geocoder")
	flags.BoolVar(&remoteOpts.TraceHTTP, "trace-http", false, "Log remote geocoder requests and responses to stderr")
	flags.BoolVar(&remoteOpts.TraceHTTPBody, "trace-http-body", false, "Include bodies when tracing HTTP")
}
