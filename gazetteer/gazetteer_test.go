// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamicebreaker/locator/spatial"
)

func testEntries() []Entry {
	return []Entry{
		{Key: "Paris", Point: spatial.Point{Lat: 48.8566, Lng: 2.3522}, DisplayName: "Paris, France"},
		{Key: "berlin", Point: spatial.Point{Lat: 52.5200, Lng: 13.4050}, DisplayName: "Berlin, Germany"},
		{Key: "köln", Point: spatial.Point{Lat: 50.9375, Lng: 6.9603}, DisplayName: "Köln (Cologne), Germany"},
		{Key: "cologne", Point: spatial.Point{Lat: 50.9375, Lng: 6.9603}, DisplayName: "Köln (Cologne), Germany"},
		{Key: "singapore", Point: spatial.Point{Lat: 1.3521, Lng: 103.8198}, DisplayName: "Singapore"},
	}
}

func TestNewSortsAndLowercasesKeys(t *testing.T) {
	g, err := New(testEntries())
	require.NoError(t, err)

	keys := make([]string, 0, g.Len())
	for _, e := range g.Entries() {
		keys = append(keys, e.Key)
	}

	if diff := cmp.Diff([]string{"berlin", "cologne", "köln", "paris", "singapore"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantErr error
	}{
		{name: "empty", entries: nil, wantErr: ErrEmpty},
		{
			name: "blank key",
			entries: []Entry{
				{Key: "  ", Point: spatial.Point{Lat: 1, Lng: 1}, DisplayName: "Nowhere"},
			},
			wantErr: ErrInvalidEntry,
		},
		{
			name: "blank display name",
			entries: []Entry{
				{Key: "x", Point: spatial.Point{Lat: 1, Lng: 1}},
			},
			wantErr: ErrInvalidEntry,
		},
		{
			name: "bad latitude",
			entries: []Entry{
				{Key: "x", Point: spatial.Point{Lat: 120, Lng: 1}, DisplayName: "X"},
			},
			wantErr: ErrInvalidEntry,
		},
		{
			name: "duplicate after lowercasing",
			entries: []Entry{
				{Key: "Berlin", Point: spatial.Point{Lat: 1, Lng: 1}, DisplayName: "Berlin, Germany"},
				{Key: "berlin ", Point: spatial.Point{Lat: 1, Lng: 1}, DisplayName: "Berlin, Germany"},
			},
			wantErr: ErrDuplicateKey,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.entries)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestEntriesIsACopy(t *testing.T) {
	g, err := New(testEntries())
	require.NoError(t, err)

	entries := g.Entries()
	entries[0].Key = "mutated"

	_, ok := g.Lookup("mutated")
	assert.False(t, ok)

	e, ok := g.Lookup("BERLIN")
	require.True(t, ok)
	assert.Equal(t, "Berlin, Germany", e.DisplayName)
}

func TestEntryCountry(t *testing.T) {
	assert.Equal(t, "Germany", Entry{DisplayName: "Köln (Cologne), Germany"}.Country())
	assert.Equal(t, "USA", Entry{DisplayName: "Washington D.C., USA"}.Country())
	assert.Empty(t, Entry{DisplayName: "Singapore"}.Country())
}

func TestCountries(t *testing.T) {
	g, err := New(testEntries())
	require.NoError(t, err)

	assert.Equal(t, []string{"France", "Germany"}, g.Countries())
}

func TestEach(t *testing.T) {
	g, err := New(testEntries())
	require.NoError(t, err)

	var seen []string

	g.Each(func(e Entry) bool {
		seen = append(seen, e.Key)

		return len(seen) < 2
	})

	assert.Equal(t, []string{"berlin", "cologne"}, seen)
}

func TestParse(t *testing.T) {
	input := `[
		{"key": "lima", "lat": -12.0464, "lon": -77.0428, "display_name": "Lima, Peru"},
		{"key": "quito", "lat": -0.1807, "lon": -78.4678, "display_name": "Quito, Ecuador"}
	]`

	g, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())

	e, ok := g.Lookup("lima")
	require.True(t, ok)
	assert.InDelta(t, -77.0428, e.Point.Lng, 1e-9)

	_, err = Parse(strings.NewReader(`{"key": "not an array"}`))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gazetteer.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"key":"oslo","lat":59.9139,"lon":10.7522,"display_name":"Oslo, Norway"}]`), 0o600))

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Norway"}, g.Countries())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	g, err := Default()
	require.NoError(t, err)
	assert.Greater(t, g.Len(), 150)

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, g, again)

	countries := g.Countries()
	assert.Contains(t, countries, "Germany")
	assert.Contains(t, countries, "United Kingdom")
	assert.NotContains(t, countries, "Singapore")
	assert.IsNonDecreasing(t, countries)

	// Duplicate keys in the source table keep their last definition.
	munich, ok := g.Lookup("munich")
	require.True(t, ok)
	assert.Equal(t, "München (Munich), Germany", munich.DisplayName)
}
