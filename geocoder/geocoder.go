// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoder turns participant answers into coordinates. The
// gazetteer backed resolver is always available; a remote provider can be
// chained behind it for the answers the gazetteer cannot place.
package geocoder

import (
	"context"

	"github.com/teamicebreaker/locator/resolver"
	"github.com/teamicebreaker/locator/spatial"
)

// Provider names.
const (
	ProviderGazetteer  = "gazetteer"
	ProviderGoogleMaps = "google_maps"
)

// MatchTypeRemote tags results produced by a remote provider.
const MatchTypeRemote resolver.MatchType = "remote"

// Result is a geocoding result from any provider.
type Result struct {
	Point       spatial.Point       `json:"point"`
	Confidence  resolver.Confidence `json:"confidence"`
	Provider    string              `json:"provider"`
	DisplayName string              `json:"display_name"`
	MatchType   resolver.MatchType  `json:"match_type"`
}

// Geocoder is implemented by every geocoding provider.
type Geocoder interface {
	Geocode(ctx context.Context, location, country string) (*Result, error)
}

// FromMatch converts a resolver match into a result.
func FromMatch(m resolver.Match) *Result {
	loc := m.Location()

	return &Result{
		Point:       loc.Point,
		Confidence:  m.Confidence(),
		Provider:    ProviderGazetteer,
		DisplayName: loc.DisplayName,
		MatchType:   m.Type(),
	}
}

// Static geocodes against the bundled gazetteer. It never reaches the
// network.
type Static struct {
	resolver *resolver.Resolver
}

// NewStatic returns a geocoder backed by r.
func NewStatic(r *resolver.Resolver) *Static {
	return &Static{resolver: r}
}

// Geocode implements Geocoder. It fails only for blank locations.
func (s *Static) Geocode(_ context.Context, location, country string) (*Result, error) {
	m, ok := s.resolver.Resolve(location, country)
	if !ok {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "location is blank"}
	}

	return FromMatch(m), nil
}
