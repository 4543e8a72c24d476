// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/teamicebreaker/locator/resolver"
	"github.com/teamicebreaker/locator/server"
	"github.com/teamicebreaker/locator/spatial"
)

var debugOpts struct {
	Country string
	MaxKm   float64
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

// eachLine calls fn for every non-blank line of stdin and prints what it
// returns as JSON, prefixed by the line itself.
func eachLine(prompt string, fn func(line string) (any, error)) error {
	input := os.Stdin
	if isatty.IsTerminal(input.Fd()) {
		fmt.Fprintln(os.Stderr, prompt)
	}

	return processLines(input, os.Stdout, fn)
}

func processLines(r io.Reader, w io.Writer, fn func(line string) (any, error)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		v, err := fn(line)
		if err != nil {
			fmt.Fprintf(w, "%s\t%q\n", line, err)

			continue
		}

		s, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}

		fmt.Fprintf(w, "%s\t\t%s\n", line, s)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

func toResponses(matches []resolver.Match) []server.MatchResponse {
	resp := make([]server.MatchResponse, 0, len(matches))
	for _, m := range matches {
		resp = append(resp, server.NewMatchResponse(m))
	}

	return resp
}

var debugResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve one location per line",
	Long: `Reads one location per line and prints the best match.

$ echo Berln | locator debug resolve
Berln		{"display_name":"Berlin, Germany","lat":52.52,"lon":13.405,"confidence":"high",...}
`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		r, err := newResolver()
		if err != nil {
			return err
		}

		return eachLine("Enter locations to resolve, one per line…", func(line string) (any, error) {
			m, _ := r.Resolve(line, debugOpts.Country)

			return server.NewMatchResponse(m), nil
		})
	},
}

var debugSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Print autocomplete suggestions for one partial location per line",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		r, err := newResolver()
		if err != nil {
			return err
		}

		return eachLine("Enter partial locations, one per line…", func(line string) (any, error) {
			return toResponses(r.Suggest(line, debugOpts.Country)), nil
		})
	},
}

// parseLatLng accepts "lat,lng" or "lat lng".
func parseLatLng(s string) (spatial.Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) != 2 {
		return spatial.Point{}, fmt.Errorf("expected \"lat,lng\", got %q", s)
	}

	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("parsing latitude: %w", err)
	}

	lng, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("parsing longitude: %w", err)
	}

	p := spatial.Point{Lat: lat, Lng: lng}

	return p, p.Validate()
}

var debugReverseCmd = &cobra.Command{
	Use:   "reverse",
	Short: "Find the nearest known place for one \"lat,lng\" per line",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		r, err := newResolver()
		if err != nil {
			return err
		}

		return eachLine("Enter coordinates as lat,lng, one per line…", func(line string) (any, error) {
			p, err := parseLatLng(line)
			if err != nil {
				return nil, err
			}

			m, ok := r.Reverse(p, debugOpts.MaxKm*1000)
			if !ok {
				return nil, fmt.Errorf("no known place within %.0f km", debugOpts.MaxKm)
			}

			return server.NewMatchResponse(m), nil
		})
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugResolveCmd)
	debugCmd.AddCommand(debugSuggestCmd)
	debugCmd.AddCommand(debugReverseCmd)
	debugResolveCmd.Flags().StringVar(&debugOpts.Country, "country", "", "Restrict matches to this country")
	debugSuggestCmd.Flags().StringVar(&debugOpts.Country, "country", "", "Restrict matches to this country")
	debugReverseCmd.Flags().Float64Var(&debugOpts.MaxKm, "max-km", 0, "Ignore places farther than this (0 means no limit)")
}
