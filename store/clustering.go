// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/teamicebreaker/locator/spatial"
)

// Cluster is a group of placements drawn as a single marker. Label is the
// most common display name in the group and Radius the distance in meters
// from the center to the farthest member.
type Cluster struct {
	Label        string        `json:"label"`
	Center       spatial.Point `json:"center"`
	Radius       float64       `json:"radius"`
	Count        int           `json:"count"`
	Participants []string      `json:"participants"`
	Placements   []*Placement  `json:"placements"`
}

// clusterPlacements groups placements into clusters: a placement joins the
// first cluster that has a member within distanceThreshold meters.
func clusterPlacements(placements []*Placement, distanceThreshold float64) [][]*Placement {
	clusters := make([][]*Placement, 0, len(placements))

	visited := make([]bool, len(placements))

	for i, p1 := range placements {
		if visited[i] {
			continue
		}

		cluster := []*Placement{p1}
		visited[i] = true

		// Members added later may bring further placements within reach.
		for grew := true; grew; {
			grew = false

			for j, p2 := range placements {
				if visited[j] {
					continue
				}

				for _, member := range cluster {
					if p2.Point.HaversineDistance(&member.Point) <= distanceThreshold {
						cluster = append(cluster, p2)
						visited[j] = true
						grew = true

						break
					}
				}
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}

func newCluster(members []*Placement) *Cluster {
	c := &Cluster{Count: len(members), Placements: members}

	labels := make(map[string]int)
	participants := make(map[string]struct{})

	var lat, lng float64

	for _, p := range members {
		lat += p.Point.Lat
		lng += p.Point.Lng
		labels[p.DisplayName]++
		participants[p.Participant] = struct{}{}
	}

	c.Center = spatial.Point{Lat: lat / float64(len(members)), Lng: lng / float64(len(members))}

	for label, n := range labels {
		if n > labels[c.Label] || (n == labels[c.Label] && label < c.Label) {
			c.Label = label
		}
	}

	for name := range participants {
		c.Participants = append(c.Participants, name)
	}

	slices.Sort(c.Participants)

	for _, p := range members {
		c.Radius = max(c.Radius, c.Center.HaversineDistance(&p.Point))
	}

	return c
}

func (r *sqlRepository) Clusters(distanceMeters float64) ([]*Cluster, error) {
	if distanceMeters < 0 {
		return nil, fmt.Errorf("distance must not be negative (got %f)", distanceMeters)
	}

	placements, err := r.AllSorted()
	if err != nil {
		return nil, fmt.Errorf("listing placements: %w", err)
	}

	raw := clusterPlacements(placements, distanceMeters)

	result := make([]*Cluster, 0, len(raw))
	for _, members := range raw {
		result = append(result, newCluster(members))
	}

	slices.SortStableFunc(result, func(a, b *Cluster) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}

		return strings.Compare(a.Label, b.Label)
	})

	log.Printf("Grouped %d placements into %d clusters", len(placements), len(result))

	return result, nil
}
