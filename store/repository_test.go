// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamicebreaker/locator/geocoder"
	"github.com/teamicebreaker/locator/resolver"
	"github.com/teamicebreaker/locator/spatial"
	"github.com/uber/h3-go/v4"
)

func setupTestDB(t *testing.T) Repository {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db)
	require.NoError(t, repo.CreateSchema())

	return repo
}

func newPlacement(participant, query string, lat, lng float64) *Placement {
	return &Placement{
		Participant: participant,
		Query:       query,
		Point:       spatial.Point{Lat: lat, Lng: lng},
		DisplayName: query,
		Confidence:  resolver.ConfidenceExact,
		MatchType:   resolver.MatchTypeExact,
		Provider:    geocoder.ProviderGazetteer,
	}
}

func TestCreateSchema(t *testing.T) {
	repo := setupTestDB(t)

	var tableName string

	err := repo.DB().QueryRow("SELECT table_name FROM information_schema.tables WHERE table_name = 'placements'").Scan(&tableName)
	require.NoError(t, err)
	assert.Equal(t, "placements", tableName)

	// Idempotent.
	require.NoError(t, repo.CreateSchema())
}

func TestSaveAndGet(t *testing.T) {
	repo := setupTestDB(t)

	p := newPlacement(" alice ", " Berlin ", 52.52, 13.405)
	p.Country = "Germany"
	p.DisplayName = "Berlin, Germany"
	require.NoError(t, repo.Save(p))
	assert.NotZero(t, p.ID)

	got, err := repo.Get("alice", "Berlin")
	require.NoError(t, err)

	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "alice", got.Participant)
	assert.Equal(t, "Germany", got.Country)
	assert.Equal(t, "Berlin, Germany", got.DisplayName)
	assert.InDelta(t, 52.52, got.Point.Lat, 1e-9)
	assert.InDelta(t, 13.405, got.Point.Lng, 1e-9)
	assert.Equal(t, resolver.ConfidenceExact, got.Confidence)
	assert.Equal(t, resolver.MatchTypeExact, got.MatchType)
	assert.Equal(t, geocoder.ProviderGazetteer, got.Provider)
	assert.False(t, got.CreatedAt.IsZero())

	cell, err := got.Point.Cell(8)
	require.NoError(t, err)
	assert.Equal(t, int64(cell), got.H3Res8)
	assert.Equal(t, 1, h3.Cell(got.H3Res1).Resolution())

	_, err = repo.Get("alice", "Paris")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveUpdatesExisting(t *testing.T) {
	repo := setupTestDB(t)

	first := newPlacement("bob", "Koeln", 50.9375, 6.9603)
	first.Confidence = resolver.ConfidenceMedium
	first.MatchType = resolver.MatchTypeFuzzy
	require.NoError(t, repo.Save(first))

	second := newPlacement("bob", "Koeln", 50.94, 6.96)
	second.DisplayName = "Köln (Cologne), Germany"
	second.Confidence = resolver.ConfidenceHigh
	second.MatchType = geocoder.MatchTypeRemote
	second.Provider = geocoder.ProviderGoogleMaps
	require.NoError(t, repo.Save(second))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.Get("bob", "Koeln")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Köln (Cologne), Germany", got.DisplayName)
	assert.Equal(t, resolver.ConfidenceHigh, got.Confidence)
	assert.Equal(t, geocoder.MatchTypeRemote, got.MatchType)
	assert.InDelta(t, 50.94, got.Point.Lat, 1e-9)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestSaveRejectsInvalid(t *testing.T) {
	repo := setupTestDB(t)

	p := newPlacement("carol", "Nowhere", 95, 0)
	require.Error(t, repo.Save(p))
	require.Error(t, repo.Save(nil))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListAndDelete(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.BulkInsert([]*Placement{
		newPlacement("alice", "Berlin", 52.52, 13.405),
		newPlacement("alice", "Paris", 48.8566, 2.3522),
		newPlacement("bob", "Lyon", 45.764, 4.8357),
	}))

	all, err := repo.List(0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := repo.List(2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := repo.List(2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	sorted, err := repo.AllSorted()
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, []string{"Berlin", "Paris", "Lyon"}, []string{sorted[0].Query, sorted[1].Query, sorted[2].Query})

	alice, err := repo.ListByParticipant("alice")
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	removed, err := repo.Delete("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBulkInsertIsAtomic(t *testing.T) {
	repo := setupTestDB(t)

	err := repo.BulkInsert([]*Placement{
		newPlacement("alice", "Berlin", 52.52, 13.405),
		newPlacement("", "Paris", 48.8566, 2.3522),
	})
	require.Error(t, err)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestJSONExportImport(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.Save(newPlacement("alice", "Berlin", 52.52, 13.405)))
	require.NoError(t, repo.Save(newPlacement("bob", "Paris", 48.8566, 2.3522)))

	path := filepath.Join(t.TempDir(), "placements.json")

	exported, err := ExportJSON(repo, path)
	require.NoError(t, err)
	assert.Equal(t, 2, exported)

	other := setupTestDB(t)

	seeded, n, err := SeedIfEmpty(other, path)
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Equal(t, 2, n)

	got, err := other.Get("bob", "Paris")
	require.NoError(t, err)
	assert.InDelta(t, 48.8566, got.Point.Lat, 1e-9)

	seeded, n, err = SeedIfEmpty(other, path)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, 2, n)

	seeded, _, err = SeedIfEmpty(setupTestDB(t), filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestClusters(t *testing.T) {
	repo := setupTestDB(t)

	berlin := newPlacement("alice", "Berlin", 52.52, 13.405)
	berlin.DisplayName = "Berlin, Germany"
	potsdam := newPlacement("bob", "Potsdam", 52.3906, 13.0645)
	potsdam.DisplayName = "Potsdam, Germany"
	berlin2 := newPlacement("carol", "berlin", 52.5201, 13.4049)
	berlin2.DisplayName = "Berlin, Germany"
	paris := newPlacement("dave", "Paris", 48.8566, 2.3522)
	paris.DisplayName = "Paris, France"

	require.NoError(t, repo.BulkInsert([]*Placement{berlin, potsdam, berlin2, paris}))

	clusters, err := repo.Clusters(50_000)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	assert.Equal(t, 3, clusters[0].Count)
	assert.Equal(t, "Berlin, Germany", clusters[0].Label)
	assert.Equal(t, []string{"alice", "bob", "carol"}, clusters[0].Participants)
	assert.Greater(t, clusters[0].Radius, 0.0)
	assert.Less(t, clusters[0].Radius, 50_000.0)

	assert.Equal(t, 1, clusters[1].Count)
	assert.Equal(t, "Paris, France", clusters[1].Label)
	assert.Zero(t, clusters[1].Radius)

	tight, err := repo.Clusters(100)
	require.NoError(t, err)
	assert.Len(t, tight, 3)

	_, err = repo.Clusters(-1)
	require.Error(t, err)
}

func TestClusterPlacementsIsTransitive(t *testing.T) {
	// a-b and b-c are within range, a-c is not.
	a := newPlacement("a", "a", 0, 0)
	c := newPlacement("c", "c", 0, 0.018)
	b := newPlacement("b", "b", 0, 0.009)

	clusters := clusterPlacements([]*Placement{a, c, b}, 1100)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0], 3)
}
