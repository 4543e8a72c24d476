// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/teamicebreaker/locator/geocoder"
	"github.com/teamicebreaker/locator/store"
	"github.com/teamicebreaker/locator/utils/textutils"
)

var geocodeOpts struct {
	MaxProcs int
	DryRun   bool
}

// batchRow is one "participant<TAB>location[<TAB>country]" input line.
type batchRow struct {
	Line        int
	Participant string
	Location    string
	Country     string
}

func parseBatch(r io.Reader) ([]batchRow, error) {
	var rows []batchRow

	scanner := bufio.NewScanner(r)
	n := 0

	for scanner.Scan() {
		n++

		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("line %d: expected participant<TAB>location[<TAB>country]", n)
		}

		row := batchRow{
			Line:        n,
			Participant: strings.TrimSpace(fields[0]),
			Location:    strings.TrimSpace(fields[1]),
		}
		if len(fields) == 3 {
			row.Country = strings.TrimSpace(fields[2])
		}

		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	return rows, nil
}

// geocodeBatch geocodes rows with at most maxProcs requests in flight. The
// placements come back in input order; rows that failed are nil.
func geocodeBatch(
	ctx context.Context,
	g geocoder.Geocoder,
	rows []batchRow,
	maxProcs int,
	bar *progressbar.ProgressBar,
) ([]*store.Placement, []error) {
	if maxProcs <= 0 {
		maxProcs = runtime.NumCPU()
	}

	placements := make([]*store.Placement, len(rows))
	errChan := make(chan error, len(rows))
	semaphore := make(chan struct{}, maxProcs)

	var wg sync.WaitGroup

	for i, row := range rows {
		wg.Add(1)

		go func(i int, row batchRow) {
			defer wg.Done()
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			res, err := g.Geocode(ctx, row.Location, row.Country)
			if err != nil {
				errChan <- fmt.Errorf("line %d (%s): %w", row.Line, row.Location, err)
			} else {
				placements[i] = &store.Placement{
					Participant: row.Participant,
					Query:       row.Location,
					Country:     row.Country,
					Point:       res.Point,
					DisplayName: res.DisplayName,
					Confidence:  res.Confidence,
					MatchType:   res.MatchType,
					Provider:    res.Provider,
				}
			}

			if bar != nil {
				if err := bar.Add(1); err != nil {
					log.Printf("Updating progress bar failed - %s", err)
				}
			}
		}(i, row)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}

	return placements, errs
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode <file>",
	Short: "Geocode a batch of participant answers and store them",
	Long: `Reads one participant<TAB>location[<TAB>country] per line ("-" for stdin),
geocodes every location and saves the placements.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening batch: %w", err)
			}
			defer f.Close()

			input = f
		}

		rows, err := parseBatch(input)
		if err != nil {
			return err
		}

		r, err := newResolver()
		if err != nil {
			return err
		}

		g, err := newGeocoder(cmd.Context(), r)
		if err != nil {
			return err
		}

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(rows),
				progressbar.OptionSetDescription("Geocoding"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		placements, errs := geocodeBatch(cmd.Context(), g, rows, geocodeOpts.MaxProcs, bar)
		for _, err := range errs {
			log.Printf("Geocoding failed - %s", err)
		}

		if geocodeOpts.DryRun {
			for _, p := range placements {
				if p != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", p.Participant, p.Query, p.DisplayName, p.Confidence)
				}
			}

			return nil
		}

		repo, db, err := openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		saved := 0

		for _, p := range placements {
			if p == nil {
				continue
			}

			if err := repo.Save(p); err != nil {
				log.Printf("Saving %s/%s failed - %s", p.Participant, p.Query, err)

				continue
			}

			saved++
		}

		log.Printf("✅ Geocoded %s rows, saved %s placements, %s failures",
			textutils.FormatInt(int64(len(rows))),
			textutils.FormatInt(int64(saved)),
			textutils.FormatInt(int64(len(errs))))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
	geocodeCmd.Flags().IntVar(&geocodeOpts.MaxProcs, "max-procs", 4, "Concurrent geocoding requests (0 means one per CPU)")
	geocodeCmd.Flags().BoolVar(&geocodeOpts.DryRun, "dry-run", false, "Print the placements instead of storing them")
}
