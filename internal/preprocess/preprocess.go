// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preprocess normalizes and bounds raw input text before chunking.
package preprocess

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/study-engine/pkg/types"
)

// DefaultMaxLength is the number of characters kept from the input.
const DefaultMaxLength = 100000

// allowedSymbols lists the non-letter, non-punctuation characters that survive
// filtering. They appear in technical notation (percentages, formulas, paths).
const allowedSymbols = "$%&*+<=>@^_|~#/\\`°§±×÷"

var (
	manyNewlines   = regexp.MustCompile(`\n{3,}`)
	spaceAroundNLs = regexp.MustCompile(` *\n *`)
)

// Preprocess normalizes raw and truncates it to DefaultMaxLength characters.
// It returns types.ErrEmptyContent when nothing usable remains.
func Preprocess(raw string) (string, error) {
	return PreprocessWithLimit(raw, DefaultMaxLength)
}

// PreprocessWithLimit is Preprocess with an explicit length bound. A
// non-positive maxLen means DefaultMaxLength.
//
// The result is stable under repeated application:
// PreprocessWithLimit(PreprocessWithLimit(x, n), n) == PreprocessWithLimit(x, n).
func PreprocessWithLimit(raw string, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.Map(filterRune, s)
	s = norm.NFC.String(s)
	s = collapseWhitespace(s)
	s = strings.TrimSpace(s)
	s = truncate(s, maxLen)
	s = strings.TrimSpace(s)

	if s == "" {
		return "", types.ErrEmptyContent
	}
	return s, nil
}

// filterRune keeps letters, marks, numbers, punctuation, whitespace, and the
// allowed symbols. Every other rune is dropped.
func filterRune(r rune) rune {
	switch {
	case r == '\n' || r == '\t':
		return r
	case unicode.IsControl(r):
		return -1
	case unicode.IsSpace(r),
		unicode.IsLetter(r),
		unicode.IsMark(r),
		unicode.IsNumber(r),
		unicode.IsPunct(r):
		return r
	case strings.ContainsRune(allowedSymbols, r):
		return r
	}
	return -1
}

// collapseWhitespace turns runs of horizontal whitespace into one space,
// removes spaces next to newlines, and limits blank lines to one.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if r != '\n' && unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	out := spaceAroundNLs.ReplaceAllString(b.String(), "\n")
	return manyNewlines.ReplaceAllString(out, "\n\n")
}

// truncate keeps the first maxLen runes of s.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i]
		}
		n++
	}
	return s
}
