// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists placements, the geocoded answers participants
// gave, in DuckDB.
package store

import (
	"fmt"
	"time"

	"github.com/teamicebreaker/locator/resolver"
	"github.com/teamicebreaker/locator/spatial"
)

// Placement is a participant's answer pinned on the facilitator map.
type Placement struct {
	ID          int64               `json:"id"`
	Participant string              `json:"participant"`
	Query       string              `json:"query"`
	Country     string              `json:"country,omitempty"`
	Point       spatial.Point       `json:"point"`
	DisplayName string              `json:"display_name"`
	Confidence  resolver.Confidence `json:"confidence"`
	MatchType   resolver.MatchType  `json:"match_type"`
	Provider    string              `json:"provider"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	H3Res1      int64               `json:"-"`
	H3Res2      int64               `json:"-"`
	H3Res3      int64               `json:"-"`
	H3Res4      int64               `json:"-"`
	H3Res5      int64               `json:"-"`
	H3Res6      int64               `json:"-"`
	H3Res7      int64               `json:"-"`
	H3Res8      int64               `json:"-"`
}

// h3Columns lists the H3 fields in column order.
func (p *Placement) h3Columns() []*int64 {
	return []*int64{&p.H3Res1, &p.H3Res2, &p.H3Res3, &p.H3Res4, &p.H3Res5, &p.H3Res6, &p.H3Res7, &p.H3Res8}
}

func (p *Placement) computeH3() error {
	cells, err := p.Point.Cells(1, 8)
	if err != nil {
		return fmt.Errorf("computing h3 cells: %w", err)
	}

	for i, col := range p.h3Columns() {
		*col = int64(cells[i])
	}

	return nil
}
