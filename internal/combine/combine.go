// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package combine assembles validated, deduplicated items into the final
// artifact for each content type.
package combine

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/study-engine/pkg/types"
)

// Quiz builds a QuizSet. Repeated question ids are replaced so every id in
// the set is unique.
func Quiz(questions []types.QuizQuestion) *types.QuizSet {
	out := make([]types.QuizQuestion, len(questions))
	copy(out, questions)

	used := make(map[string]bool, len(out))
	for i := range out {
		id := out[i].ID
		for n := 0; id == "" || used[id]; n++ {
			id = stableID(out[i].Question, i, n)
		}
		used[id] = true
		out[i].ID = id
	}

	topics := make([]string, len(out))
	for i, q := range out {
		topics[i] = q.Topic
	}
	return &types.QuizSet{
		Questions: out,
		Metadata: types.QuizMetadata{
			Count:  len(out),
			Topics: distinct(topics),
		},
	}
}

// Flashcards builds a FlashcardDeck.
func Flashcards(cards []types.Flashcard) *types.FlashcardDeck {
	out := make([]types.Flashcard, len(cards))
	copy(out, cards)

	topics := make([]string, len(out))
	for i, c := range out {
		topics[i] = c.Topic
	}
	return &types.FlashcardDeck{
		Cards: out,
		Metadata: types.DeckMetadata{
			CardCount: len(out),
			Topics:    distinct(topics),
		},
	}
}

var (
	previousContextBlock = regexp.MustCompile(`(?is)^\s*previous context:.*?(?:\n\s*\n|$)`)
	boilerplateLeadIn    = regexp.MustCompile(`(?i)^\s*(?:(?:here is|here's|below is|this is) (?:a |an |the )?(?:brief |concise |short )?summary(?: of [^:\n]*)?:|summary:)\s*`)
)

// Summary joins fragments with a blank line. Every fragment after the first
// loses a leading "Previous Context:" block and a boilerplate lead-in so the
// preamble appears at most once.
func Summary(fragments []string, format types.SummaryFormat) *types.Summary {
	var parts []string
	for i, f := range fragments {
		f = strings.TrimSpace(f)
		if i > 0 {
			f = previousContextBlock.ReplaceAllString(f, "")
			f = boilerplateLeadIn.ReplaceAllString(f, "")
			f = strings.TrimSpace(f)
		}
		if f != "" {
			parts = append(parts, f)
		}
	}
	return &types.Summary{Text: strings.Join(parts, "\n\n"), Format: format}
}

// distinct returns the non-empty values in order of first appearance. It
// never returns nil so the metadata always serializes as a list.
func distinct(values []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// stableID derives a short deterministic id from the question text and its
// position in the set.
func stableID(question string, index, attempt int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d", question, index, attempt)
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}
