// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/teamicebreaker/locator/geocoder"
	"github.com/teamicebreaker/locator/resolver"
)

// MaxQueryLength is the longest location text, in runes, that is stored or
// looked up.
const MaxQueryLength = 500

const maxParticipantLength = 200

// Validate checks that a placement can be stored.
func Validate(p *Placement) error {
	if p == nil {
		return errors.New("placement can't be nil")
	}

	if strings.TrimSpace(p.Participant) == "" {
		return errors.New("participant can't be empty")
	}

	if utf8.RuneCountInString(p.Participant) > maxParticipantLength {
		return fmt.Errorf("participant too long (max %d characters)", maxParticipantLength)
	}

	if strings.TrimSpace(p.Query) == "" {
		return errors.New("query can't be empty")
	}

	if utf8.RuneCountInString(p.Query) > MaxQueryLength {
		return fmt.Errorf("query too long (max %d characters)", MaxQueryLength)
	}

	if err := p.Point.Validate(); err != nil {
		return fmt.Errorf("invalid coordinates: %w", err)
	}

	if !slices.Contains(resolver.Confidences, p.Confidence) {
		return fmt.Errorf("invalid confidence: %q", p.Confidence)
	}

	if p.MatchType != geocoder.MatchTypeRemote && !slices.Contains(resolver.MatchTypes, p.MatchType) {
		return fmt.Errorf("invalid match type: %q", p.MatchType)
	}

	if strings.TrimSpace(p.Provider) == "" {
		return errors.New("provider can't be empty")
	}

	return nil
}

// sanitize trims the free-text fields.
func sanitize(p *Placement) {
	p.Participant = strings.TrimSpace(p.Participant)
	p.Query = strings.TrimSpace(p.Query)
	p.Country = strings.TrimSpace(p.Country)
	p.DisplayName = strings.TrimSpace(p.DisplayName)
}
