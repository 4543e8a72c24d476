// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"strings"
	"testing"

	"github.com/teamicebreaker/locator/resolver"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Placement)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Placement) {}, wantErr: false},
		{name: "blank participant", mutate: func(p *Placement) { p.Participant = "  " }, wantErr: true},
		{name: "participant too long", mutate: func(p *Placement) { p.Participant = strings.Repeat("a", 201) }, wantErr: true},
		{name: "blank query", mutate: func(p *Placement) { p.Query = "" }, wantErr: true},
		{name: "query too long", mutate: func(p *Placement) { p.Query = strings.Repeat("q", 501) }, wantErr: true},
		{name: "query of multibyte runes at the limit", mutate: func(p *Placement) { p.Query = strings.Repeat("ü", 500) }, wantErr: false},
		{name: "latitude out of range", mutate: func(p *Placement) { p.Point.Lat = -91 }, wantErr: true},
		{name: "longitude out of range", mutate: func(p *Placement) { p.Point.Lng = 181 }, wantErr: true},
		{name: "unknown confidence", mutate: func(p *Placement) { p.Confidence = "certain" }, wantErr: true},
		{name: "unknown match type", mutate: func(p *Placement) { p.MatchType = "guess" }, wantErr: true},
		{name: "remote match type", mutate: func(p *Placement) { p.MatchType = "remote" }, wantErr: false},
		{name: "country fallback", mutate: func(p *Placement) {
			p.MatchType = resolver.MatchTypeCountryFallback
			p.Confidence = resolver.ConfidenceCountryOnly
		}, wantErr: false},
		{name: "blank provider", mutate: func(p *Placement) { p.Provider = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPlacement("alice", "Berlin", 52.52, 13.405)
			tt.mutate(p)

			err := Validate(p)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := Validate(nil); err == nil {
		t.Error("Validate(nil) should fail")
	}
}

func TestSanitize(t *testing.T) {
	p := &Placement{Participant: " alice ", Query: "\tBerlin\n", Country: " Germany ", DisplayName: " Berlin, Germany "}
	sanitize(p)

	if p.Participant != "alice" || p.Query != "Berlin" || p.Country != "Germany" || p.DisplayName != "Berlin, Germany" {
		t.Errorf("sanitize() = %+v", p)
	}
}
