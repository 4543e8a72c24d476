// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"github.com/teamicebreaker/locator/spatial"
)

// Confidence summarizes the quality of a match.
type Confidence string

const (
	ConfidenceExact       Confidence = "exact"
	ConfidenceHigh        Confidence = "high"
	ConfidenceMedium      Confidence = "medium"
	ConfidenceLow         Confidence = "low"
	ConfidenceCountryOnly Confidence = "country-only"
	ConfidenceUnknown     Confidence = "unknown"
)

// Confidences lists every known confidence, best first.
var Confidences = []Confidence{
	ConfidenceExact,
	ConfidenceHigh,
	ConfidenceMedium,
	ConfidenceLow,
	ConfidenceCountryOnly,
	ConfidenceUnknown,
}

// MatchType tells how a match was produced.
type MatchType string

const (
	MatchTypeExact           MatchType = "exact"
	MatchTypeFuzzy           MatchType = "fuzzy"
	MatchTypePostalCode      MatchType = "postal-code"
	MatchTypeCountryFallback MatchType = "country-fallback"
	MatchTypeDefaultFallback MatchType = "default-fallback"
	MatchTypeReverse         MatchType = "reverse"
)

// MatchTypes lists every known match type.
var MatchTypes = []MatchType{
	MatchTypeExact,
	MatchTypeFuzzy,
	MatchTypePostalCode,
	MatchTypeCountryFallback,
	MatchTypeDefaultFallback,
	MatchTypeReverse,
}

// Place is a labeled point.
type Place struct {
	DisplayName string        `json:"display_name"`
	Point       spatial.Point `json:"point"`
}

// Location returns the place itself. It lets every match variant expose
// its place through the Match interface.
func (p Place) Location() Place {
	return p
}

// Match is the result of resolving a query. The concrete type is one of
// ExactMatch, FuzzyMatch, PostalCodeMatch, CountryFallbackMatch,
// DefaultFallbackMatch or ReverseMatch.
type Match interface {
	Location() Place
	Confidence() Confidence
	Type() MatchType

	isMatch()
}

// ExactMatch is a gazetteer entry whose key or display name equals the
// normalized query.
type ExactMatch struct {
	Place
	Key string
}

func (ExactMatch) Confidence() Confidence { return ConfidenceExact }
func (ExactMatch) Type() MatchType        { return MatchTypeExact }
func (ExactMatch) isMatch()               {}

// FuzzyMatch is a gazetteer entry close enough to the query to be useful.
// Score is in [0, 1].
type FuzzyMatch struct {
	Place
	Key   string
	Score float64
	Tier  Confidence
}

func (m FuzzyMatch) Confidence() Confidence { return m.Tier }
func (FuzzyMatch) Type() MatchType          { return MatchTypeFuzzy }
func (FuzzyMatch) isMatch()                 {}

// PostalCodeMatch is a query recognized as a postal code. Postal codes are
// not looked up, so the point only locates the country.
type PostalCodeMatch struct {
	Place
	Code string
	Tier Confidence
}

func (m PostalCodeMatch) Confidence() Confidence { return m.Tier }
func (PostalCodeMatch) Type() MatchType          { return MatchTypePostalCode }
func (PostalCodeMatch) isMatch()                 {}

// CountryFallbackMatch places an unknown query somewhere in the requested
// country.
type CountryFallbackMatch struct {
	Place
	Country string
}

func (CountryFallbackMatch) Confidence() Confidence { return ConfidenceCountryOnly }
func (CountryFallbackMatch) Type() MatchType        { return MatchTypeCountryFallback }
func (CountryFallbackMatch) isMatch()               {}

// DefaultFallbackMatch is the generic answer given when nothing else
// matched. It always sits on the configured default point.
type DefaultFallbackMatch struct {
	Place
}

func (DefaultFallbackMatch) Confidence() Confidence { return ConfidenceUnknown }
func (DefaultFallbackMatch) Type() MatchType        { return MatchTypeDefaultFallback }
func (DefaultFallbackMatch) isMatch()               {}

// ReverseMatch is the gazetteer entry nearest to a point.
type ReverseMatch struct {
	Place
	Key string
	// Distance from the queried point, in meters.
	Distance float64
	Tier     Confidence
}

func (m ReverseMatch) Confidence() Confidence { return m.Tier }
func (ReverseMatch) Type() MatchType          { return MatchTypeReverse }
func (ReverseMatch) isMatch()                 {}

// SimilarityScore returns the score of fuzzy matches.
func SimilarityScore(m Match) (float64, bool) {
	if f, ok := m.(FuzzyMatch); ok {
		return f.Score, true
	}

	return 0, false
}

// IsGeneric reports whether m is the generic default-location answer.
func IsGeneric(m Match) bool {
	_, ok := m.(DefaultFallbackMatch)

	return ok
}

// IsFallback reports whether m was not derived from the query text itself.
func IsFallback(m Match) bool {
	switch m.(type) {
	case CountryFallbackMatch, DefaultFallbackMatch:
		return true
	default:
		return false
	}
}
