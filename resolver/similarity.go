// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"github.com/agnivade/levenshtein"
)

// Levenshtein returns the edit distance between a and b counting unit cost
// insertions, deletions and substitutions of runes.
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity scores how alike a and b are, from 0 (nothing in common) to 1
// (identical once normalized). Two empty strings are identical.
func Similarity(a, b string) float64 {
	return similarity(Normalize(a), Normalize(b))
}

// similarity is Similarity over already normalized strings.
func similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))

	longest := max(la, lb)
	if longest == 0 {
		return 1
	}

	return 1 - float64(Levenshtein(a, b))/float64(longest)
}
