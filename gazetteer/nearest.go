// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"math"

	"github.com/teamicebreaker/locator/spatial"
	"github.com/uber/h3-go/v4"
)

const (
	// indexResolution is the H3 resolution of the reverse lookup index.
	// Resolution 3 cells have edges of roughly 60 km.
	indexResolution = 3

	// indexRing is how many rings around the query cell are checked before
	// falling back to a full scan.
	indexRing = 3

	// indexRadius is the distance, in meters, fully covered by the ring.
	// A candidate closer than this is guaranteed to be the nearest entry.
	indexRadius = 100_000
)

// Nearest returns the entry closest to p and its distance in meters. When
// maxMeters is positive, entries farther than maxMeters are ignored.
func (g *Gazetteer) Nearest(p spatial.Point, maxMeters float64) (Entry, float64, bool) {
	if err := p.Validate(); err != nil {
		return Entry{}, 0, false
	}

	best, dist := g.nearestIndexed(p)
	if best < 0 || dist > indexRadius {
		best, dist = g.nearestScan(p)
	}

	if best < 0 || (maxMeters > 0 && dist > maxMeters) {
		return Entry{}, 0, false
	}

	return g.entries[best], dist, true
}

func (g *Gazetteer) nearestIndexed(p spatial.Point) (int, float64) {
	cell, err := p.Cell(indexResolution)
	if err != nil {
		return -1, math.Inf(1)
	}

	disk, err := h3.GridDisk(cell, indexRing)
	if err != nil {
		return -1, math.Inf(1)
	}

	best, bestDist := -1, math.Inf(1)

	for _, c := range disk {
		for _, i := range g.cells[c] {
			if d := p.HaversineDistance(&g.entries[i].Point); d < bestDist {
				best, bestDist = i, d
			}
		}
	}

	return best, bestDist
}

func (g *Gazetteer) nearestScan(p spatial.Point) (int, float64) {
	best, bestDist := -1, math.Inf(1)

	for i := range g.entries {
		if d := p.HaversineDistance(&g.entries[i].Point); d < bestDist {
			best, bestDist = i, d
		}
	}

	return best, bestDist
}
