// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teamicebreaker/locator/spatial"
)

// Config holds the tunable constants of a Resolver.
type Config struct {
	// Fuzzy scores strictly above these thresholds are rated high, medium
	// or low. Lower scores are discarded.
	HighThreshold   float64
	MediumThreshold float64
	LowThreshold    float64

	// WordBonus is added to a suggestion score for every query word that
	// appears verbatim in the key or display name.
	WordBonus float64

	// Limit caps the number of suggestions.
	Limit int

	// MinSuggestLength is the shortest query, in runes, that gets
	// suggestions.
	MinSuggestLength int

	// DefaultPoint is used for postal codes and queries nothing matched.
	DefaultPoint spatial.Point
	// DefaultCountry labels postal codes given without a country.
	DefaultCountry string
	// UnknownLabel labels generic answers given without a country.
	UnknownLabel string

	// Reverse lookups closer than these distances, in meters, are rated
	// high or medium. Farther ones are rated low.
	ReverseHighMeters   float64
	ReverseMediumMeters float64
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		HighThreshold:       0.8,
		MediumThreshold:     0.6,
		LowThreshold:        0.4,
		WordBonus:           0.1,
		Limit:               10,
		MinSuggestLength:    2,
		DefaultPoint:        spatial.Point{Lat: 51.1657, Lng: 10.4515},
		DefaultCountry:      "Germany",
		UnknownLabel:        "Unknown Location",
		ReverseHighMeters:   25_000,
		ReverseMediumMeters: 100_000,
	}
}

// Validate checks that the configuration is coherent.
func (c Config) Validate() error {
	var errs []error

	if !(c.HighThreshold > c.MediumThreshold && c.MediumThreshold > c.LowThreshold && c.LowThreshold >= 0) {
		errs = append(errs, fmt.Errorf("thresholds must satisfy high > medium > low >= 0 (got %.2f, %.2f, %.2f)",
			c.HighThreshold, c.MediumThreshold, c.LowThreshold))
	}

	if c.HighThreshold > 1 {
		errs = append(errs, fmt.Errorf("high threshold must be at most 1 (got %.2f)", c.HighThreshold))
	}

	if c.WordBonus < 0 {
		errs = append(errs, fmt.Errorf("word bonus must not be negative (got %.2f)", c.WordBonus))
	}

	if c.Limit <= 0 {
		errs = append(errs, fmt.Errorf("limit must be positive (got %d)", c.Limit))
	}

	if c.MinSuggestLength < 0 {
		errs = append(errs, fmt.Errorf("minimum suggest length must not be negative (got %d)", c.MinSuggestLength))
	}

	if err := c.DefaultPoint.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("default point: %w", err))
	}

	if strings.TrimSpace(c.DefaultCountry) == "" {
		errs = append(errs, errors.New("default country is required"))
	}

	if strings.TrimSpace(c.UnknownLabel) == "" {
		errs = append(errs, errors.New("unknown label is required"))
	}

	if !(c.ReverseMediumMeters > c.ReverseHighMeters && c.ReverseHighMeters > 0) {
		errs = append(errs, fmt.Errorf("reverse distances must satisfy medium > high > 0 (got %.0f, %.0f)",
			c.ReverseMediumMeters, c.ReverseHighMeters))
	}

	return errors.Join(errs...)
}

// tier rates a fuzzy score. It returns false when the score is too low to
// be used.
func (c Config) tier(score float64) (Confidence, bool) {
	switch {
	case score > c.HighThreshold:
		return ConfidenceHigh, true
	case score > c.MediumThreshold:
		return ConfidenceMedium, true
	case score > c.LowThreshold:
		return ConfidenceLow, true
	default:
		return "", false
	}
}

// distanceTier rates a reverse lookup by its distance in meters.
func (c Config) distanceTier(meters float64) Confidence {
	switch {
	case meters <= c.ReverseHighMeters:
		return ConfidenceHigh
	case meters <= c.ReverseMediumMeters:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
