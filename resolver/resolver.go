// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolver maps free-text locations typed by participants onto the
// gazetteer. It tolerates typos, aliases and postal codes and always
// degrades to a usable fallback instead of failing.
//
// A Resolver never mutates its state after New, so it may be shared by any
// number of goroutines.
package resolver

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/teamicebreaker/locator/gazetteer"
	"github.com/teamicebreaker/locator/spatial"
)

// entry is a gazetteer entry with its normalized forms precomputed.
type entry struct {
	gazetteer.Entry

	key     string
	display string
	words   map[string]struct{}
}

func (e *entry) inCountry(filter string) bool {
	return filter == "" || strings.Contains(e.display, filter)
}

func (e *entry) exact(q string) bool {
	return q == e.key || q == e.display
}

func (e *entry) score(q string) float64 {
	return max(similarity(q, e.key), similarity(q, e.display))
}

func (e *entry) matchingWords(words []string) int {
	n := 0

	for _, w := range words {
		if _, ok := e.words[w]; ok {
			n++
		}
	}

	return n
}

func (e *entry) place() Place {
	return Place{DisplayName: e.DisplayName, Point: e.Point}
}

// Resolver answers location queries against a gazetteer.
type Resolver struct {
	gaz       *gazetteer.Gazetteer
	cfg       Config
	entries   []entry
	countries []string
}

// New builds a resolver over g.
func New(g *gazetteer.Gazetteer, cfg Config) (*Resolver, error) {
	if g == nil {
		return nil, errors.New("resolver: gazetteer is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("resolver: invalid config: %w", err)
	}

	r := &Resolver{
		gaz:       g,
		cfg:       cfg,
		entries:   make([]entry, 0, g.Len()),
		countries: g.Countries(),
	}

	g.Each(func(e gazetteer.Entry) bool {
		ne := entry{
			Entry:   e,
			key:     Normalize(e.Key),
			display: Normalize(e.DisplayName),
			words:   make(map[string]struct{}),
		}

		for _, w := range strings.Fields(ne.key) {
			ne.words[w] = struct{}{}
		}

		for _, w := range strings.Fields(ne.display) {
			ne.words[w] = struct{}{}
		}

		r.entries = append(r.entries, ne)

		return true
	})

	return r, nil
}

// Config returns the configuration the resolver was built with.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Gazetteer returns the table the resolver searches.
func (r *Resolver) Gazetteer() *gazetteer.Gazetteer {
	return r.gaz
}

// ListCountries returns the sorted set of countries in the gazetteer.
func (r *Resolver) ListCountries() []string {
	return slices.Clone(r.countries)
}

// Resolve returns the single best match for query, optionally restricted to
// entries whose display name contains country. It returns false only when
// query is blank.
func (r *Resolver) Resolve(query, country string) (Match, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false
	}

	country = strings.TrimSpace(country)
	filter := Normalize(country)

	if IsPostalCode(query) {
		return r.resolvePostalCode(query, country, filter), true
	}

	q := Normalize(query)

	if q != "" {
		for i := range r.entries {
			e := &r.entries[i]
			if e.inCountry(filter) && e.exact(q) {
				return ExactMatch{Place: e.place(), Key: e.Key}, true
			}
		}

		best, bestScore := -1, 0.0

		for i := range r.entries {
			e := &r.entries[i]
			if !e.inCountry(filter) {
				continue
			}

			if s := e.score(q); s > bestScore {
				best, bestScore = i, s
			}
		}

		if best >= 0 {
			if tier, ok := r.cfg.tier(bestScore); ok {
				e := &r.entries[best]

				return FuzzyMatch{Place: e.place(), Key: e.Key, Score: bestScore, Tier: tier}, true
			}
		}
	}

	return r.fallback(query, country, filter), true
}

// Suggest returns up to Config.Limit ranked matches for an autocomplete
// list. Postal codes come first, then exact matches, then fuzzy matches
// from best to worst. Fuzzy matching only runs when nothing matched
// exactly. The list is never empty for queries of at least
// Config.MinSuggestLength runes. Shorter or blank queries get an empty list,
// without the generic fallback entry.
func (r *Resolver) Suggest(query, country string) []Match {
	query = strings.TrimSpace(query)
	if query == "" || utf8.RuneCountInString(query) < r.cfg.MinSuggestLength {
		return []Match{}
	}

	country = strings.TrimSpace(country)
	filter := Normalize(country)
	q := Normalize(query)

	var results []Match

	if IsPostalCode(query) {
		results = append(results, PostalCodeMatch{
			Place: Place{
				DisplayName: r.postalLabel(query, country),
				Point:       r.cfg.DefaultPoint,
			},
			Code: query,
			Tier: ConfidenceHigh,
		})
	}

	if q != "" {
		for i := range r.entries {
			e := &r.entries[i]
			if e.inCountry(filter) && e.exact(q) {
				results = append(results, ExactMatch{Place: e.place(), Key: e.Key})
			}
		}

		if len(results) == 0 {
			results = r.fuzzySuggestions(q, filter)
		}
	}

	if len(results) == 0 {
		results = append(results, r.fallback(query, country, filter))
	}

	if len(results) > r.cfg.Limit {
		results = results[:r.cfg.Limit]
	}

	return results
}

type scored struct {
	entry *entry
	score float64
}

func (r *Resolver) fuzzySuggestions(q, filter string) []Match {
	words := strings.Fields(q)
	candidates := make([]scored, 0, len(r.entries))

	for i := range r.entries {
		e := &r.entries[i]
		if !e.inCountry(filter) {
			continue
		}

		s := e.score(q) + r.cfg.WordBonus*float64(e.matchingWords(words))
		if s > r.cfg.LowThreshold {
			candidates = append(candidates, scored{entry: e, score: s})
		}
	}

	// Stable over key order, so equal scores keep a deterministic order.
	slices.SortStableFunc(candidates, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	results := make([]Match, 0, min(len(candidates), r.cfg.Limit))

	for _, c := range candidates {
		if len(results) == r.cfg.Limit {
			break
		}

		tier, _ := r.cfg.tier(c.score)
		results = append(results, FuzzyMatch{
			Place: c.entry.place(),
			Key:   c.entry.Key,
			Score: math.Min(c.score, 1),
			Tier:  tier,
		})
	}

	return results
}

// Reverse returns the gazetteer entry nearest to p. When maxMeters is
// positive, entries farther away are not considered.
func (r *Resolver) Reverse(p spatial.Point, maxMeters float64) (Match, bool) {
	e, dist, ok := r.gaz.Nearest(p, maxMeters)
	if !ok {
		return nil, false
	}

	return ReverseMatch{
		Place:    Place{DisplayName: e.DisplayName, Point: e.Point},
		Key:      e.Key,
		Distance: dist,
		Tier:     r.cfg.distanceTier(dist),
	}, true
}

func (r *Resolver) resolvePostalCode(code, country, filter string) Match {
	if filter != "" {
		if e := r.firstInCountry(filter); e != nil {
			return PostalCodeMatch{
				Place: Place{DisplayName: r.postalLabel(code, country), Point: e.Point},
				Code:  code,
				Tier:  ConfidenceHigh,
			}
		}
	}

	return PostalCodeMatch{
		Place: Place{DisplayName: r.postalLabel(code, country), Point: r.cfg.DefaultPoint},
		Code:  code,
		Tier:  ConfidenceMedium,
	}
}

func (r *Resolver) postalLabel(code, country string) string {
	if country == "" {
		country = r.cfg.DefaultCountry
	}

	return code + " (Postal Code), " + country
}

func (r *Resolver) fallback(query, country, filter string) Match {
	if filter != "" {
		if e := r.firstInCountry(filter); e != nil {
			return CountryFallbackMatch{
				Place:   Place{DisplayName: query + ", " + country, Point: e.Point},
				Country: country,
			}
		}
	}

	label := country
	if label == "" {
		label = r.cfg.UnknownLabel
	}

	return DefaultFallbackMatch{
		Place: Place{DisplayName: query + ", " + label, Point: r.cfg.DefaultPoint},
	}
}

func (r *Resolver) firstInCountry(filter string) *entry {
	for i := range r.entries {
		if r.entries[i].inCountry(filter) {
			return &r.entries[i]
		}
	}

	return nil
}
