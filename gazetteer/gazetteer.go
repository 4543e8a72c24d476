// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

// Package gazetteer holds the static table of known places used to resolve
// free-text locations into coordinates.
//
// A Gazetteer is built once and never mutated afterwards, so a single value
// can be shared by any number of goroutines without synchronization.
package gazetteer

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/teamicebreaker/locator/spatial"
	"github.com/uber/h3-go/v4"
)

var (
	// ErrEmpty is returned when a gazetteer would have no entries.
	ErrEmpty = errors.New("gazetteer: no entries")
	// ErrDuplicateKey is returned when two entries share the same key.
	ErrDuplicateKey = errors.New("gazetteer: duplicate key")
	// ErrInvalidEntry is returned for entries with a blank key, a blank
	// display name or out of range coordinates.
	ErrInvalidEntry = errors.New("gazetteer: invalid entry")
)

//go:embed data/gazetteer.json
var data embed.FS

const defaultDataPath = "data/gazetteer.json"

// Entry is a single place known to the gazetteer. Several keys (aliases)
// may point to the same coordinates.
type Entry struct {
	Key         string        `json:"key"`
	Point       spatial.Point `json:"point"`
	DisplayName string        `json:"display_name"`
}

// Country returns the trailing comma-separated segment of the display name,
// or "" when the display name has no country part (e.g. "Singapore").
func (e Entry) Country() string {
	i := strings.LastIndex(e.DisplayName, ",")
	if i < 0 {
		return ""
	}

	return strings.TrimSpace(e.DisplayName[i+1:])
}

// Gazetteer is an immutable, key-ordered table of entries.
type Gazetteer struct {
	entries   []Entry
	byKey     map[string]int
	cells     map[h3.Cell][]int
	countries []string
}

// New validates the entries and builds a gazetteer sorted by key. Keys are
// lowercased and trimmed.
func New(entries []Entry) (*Gazetteer, error) {
	if len(entries) == 0 {
		return nil, ErrEmpty
	}

	g := &Gazetteer{
		entries: make([]Entry, 0, len(entries)),
		byKey:   make(map[string]int, len(entries)),
		cells:   make(map[h3.Cell][]int),
	}

	for _, e := range entries {
		e.Key = strings.ToLower(strings.TrimSpace(e.Key))
		e.DisplayName = strings.TrimSpace(e.DisplayName)

		if e.Key == "" || e.DisplayName == "" {
			return nil, fmt.Errorf("%w: key %q, display name %q", ErrInvalidEntry, e.Key, e.DisplayName)
		}

		if err := e.Point.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidEntry, e.Key, err)
		}

		if _, ok := g.byKey[e.Key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, e.Key)
		}

		g.byKey[e.Key] = -1
		g.entries = append(g.entries, e)
	}

	slices.SortFunc(g.entries, func(a, b Entry) int {
		return strings.Compare(a.Key, b.Key)
	})

	countries := make(map[string]struct{})

	for i, e := range g.entries {
		g.byKey[e.Key] = i

		cell, err := e.Point.Cell(indexResolution)
		if err != nil {
			return nil, fmt.Errorf("indexing %s: %w", e.Key, err)
		}

		g.cells[cell] = append(g.cells[cell], i)

		if c := e.Country(); c != "" {
			countries[c] = struct{}{}
		}
	}

	g.countries = make([]string, 0, len(countries))
	for c := range countries {
		g.countries = append(g.countries, c)
	}

	slices.Sort(g.countries)

	return g, nil
}

// jsonEntry is the on-disk representation of an entry.
type jsonEntry struct {
	Key         string  `json:"key"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

// Parse reads a JSON array of {"key", "lat", "lon", "display_name"} objects.
func Parse(r io.Reader) (*Gazetteer, error) {
	var raw []jsonEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing gazetteer JSON: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, Entry{
			Key:         e.Key,
			Point:       spatial.Point{Lat: e.Lat, Lng: e.Lon},
			DisplayName: e.DisplayName,
		})
	}

	return New(entries)
}

// LoadFile loads a gazetteer from a JSON file.
func LoadFile(path string) (*Gazetteer, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("opening gazetteer file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

var (
	defaultOnce sync.Once
	defaultGaz  *Gazetteer
	errDefault  error
)

// Default returns the gazetteer bundled with the binary. It is parsed once
// per process.
func Default() (*Gazetteer, error) {
	defaultOnce.Do(func() {
		f, err := data.Open(defaultDataPath)
		if err != nil {
			errDefault = fmt.Errorf("opening embedded gazetteer: %w", err)

			return
		}
		defer f.Close()

		defaultGaz, errDefault = Parse(f)
	})

	return defaultGaz, errDefault
}

// Len returns the number of entries.
func (g *Gazetteer) Len() int {
	return len(g.entries)
}

// Entries returns a copy of the entries in key order.
func (g *Gazetteer) Entries() []Entry {
	return slices.Clone(g.entries)
}

// Each calls fn for every entry in key order until fn returns false.
func (g *Gazetteer) Each(fn func(Entry) bool) {
	for _, e := range g.entries {
		if !fn(e) {
			return
		}
	}
}

// Lookup returns the entry registered under key (case-insensitive).
func (g *Gazetteer) Lookup(key string) (Entry, bool) {
	i, ok := g.byKey[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Entry{}, false
	}

	return g.entries[i], true
}

// Countries returns the sorted, deduplicated country names found in the
// display names.
func (g *Gazetteer) Countries() []string {
	return slices.Clone(g.countries)
}
