// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/teamicebreaker/locator/utils/textutils"
)

// Normalize lowercases s, strips diacritics and drops every character that
// is not an ASCII letter, an ASCII digit or whitespace.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = textutils.StripDiacritics(strings.ToLower(s))

	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, s)
}

var postalCodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{5}(-\d{4})?$`),                               // US and Germany
	regexp.MustCompile(`^[A-Za-z]\d[A-Za-z][ -]?\d[A-Za-z]\d$`),          // Canada
	regexp.MustCompile(`^[A-Za-z]{1,2}\d[A-Za-z\d]?[ -]?\d[A-Za-z]{2}$`), // UK
}

// IsPostalCode reports whether s looks like a US, Canadian or UK postal
// code. Surrounding whitespace is ignored.
func IsPostalCode(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}

	for _, re := range postalCodePatterns {
		if re.MatchString(s) {
			return true
		}
	}

	return false
}
