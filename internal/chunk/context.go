// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunk

import (
	"regexp"
	"strings"
)

// contextPatterns select the sentences worth carrying into the next chunk:
// headings, acronyms, pay grades and rates, quantities with units, and
// term definitions.
var contextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^#{1,6}\s`),
	regexp.MustCompile(`\b[A-Z]{2,}s?\b`),
	regexp.MustCompile(`\b[EOW]-?[1-9]\b`),
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s?(?:%|percent|points?|days?|weeks?|months?|years?|hours?|minutes?|knots?|feet|ft|lbs?|psi|nm)\b`),
	regexp.MustCompile(`^[A-Z][^:\n]{1,60}:\s`),
}

var sentenceEnd = regexp.MustCompile(`[.!?]["')\]]*\s+`)

// ContextSummary extracts the sentences of text that match a context pattern,
// in source order, until adding the next one would exceed limit characters.
// Sentences that do not fit are skipped in favour of later, shorter ones.
func ContextSummary(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	var (
		picked []string
		used   int
		seen   = map[string]bool{}
	)
	for _, line := range strings.Split(text, "\n") {
		for _, unit := range splitSentences(line) {
			unit = strings.TrimSpace(unit)
			if unit == "" || seen[unit] || !matchesContext(unit) {
				continue
			}
			cost := size(unit)
			if len(picked) > 0 {
				cost++ // newline separator
			}
			if used+cost > limit {
				continue
			}
			seen[unit] = true
			picked = append(picked, unit)
			used += cost
		}
	}
	return strings.Join(picked, "\n")
}

func matchesContext(s string) bool {
	for _, p := range contextPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func splitSentences(line string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(line, -1) {
		out = append(out, line[start:loc[1]])
		start = loc[1]
	}
	if start < len(line) {
		out = append(out, line[start:])
	}
	return out
}
