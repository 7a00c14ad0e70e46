// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup removes near-duplicate generated items. Items are compared
// by normalized Levenshtein similarity; the first item of each cluster wins.
package dedup

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/pdiddy/study-engine/pkg/types"
)

// DefaultThreshold is the similarity above which two items are duplicates.
const DefaultThreshold = 0.75

// Similarity returns 1 - d/max(len(a), len(b)) where d is the Levenshtein
// distance between the lowercased, trimmed strings and lengths are in runes.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// Deduplicate returns items with near-duplicates removed, preserving order.
// fields extracts the strings compared between two items; a later item is a
// duplicate of an earlier cluster head when any pair of corresponding fields
// scores strictly above threshold. A non-positive threshold uses
// DefaultThreshold.
func Deduplicate[T any](items []T, fields func(T) []string, threshold float64) []T {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if len(items) < 2 {
		return items
	}

	keys := make([][]string, len(items))
	for i, it := range items {
		keys[i] = fields(it)
	}

	seen := make([]bool, len(items))
	out := make([]T, 0, len(items))
	for i := range items {
		if seen[i] {
			continue
		}
		out = append(out, items[i])
		for j := i + 1; j < len(items); j++ {
			if !seen[j] && duplicate(keys[i], keys[j], threshold) {
				seen[j] = true
			}
		}
	}
	return out
}

func duplicate(a, b []string, threshold float64) bool {
	for k := 0; k < len(a) && k < len(b); k++ {
		if Similarity(a[k], b[k]) > threshold {
			return true
		}
	}
	return false
}

// Quiz removes questions whose text is a near-duplicate of an earlier one.
func Quiz(questions []types.QuizQuestion, threshold float64) []types.QuizQuestion {
	return Deduplicate(questions, func(q types.QuizQuestion) []string {
		return []string{q.Question}
	}, threshold)
}

// Flashcards removes cards whose front or back is a near-duplicate of the
// corresponding side of an earlier card.
func Flashcards(cards []types.Flashcard, threshold float64) []types.Flashcard {
	return Deduplicate(cards, func(c types.Flashcard) []string {
		return []string{c.Front, c.Back}
	}, threshold)
}
