// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate filters raw generated items against the rules of each
// content type. Bad items are dropped and counted, never returned as errors.
// Flashcard-shaped items found in a quiz batch are coerced into questions.
package validate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pdiddy/study-engine/pkg/types"
)

const (
	minQuestionLen    = 10
	minExplanationLen = 20
	minOptions        = 2
	maxClozeSpans     = 3
	coercedOptions    = 4
)

// fillerOptions complete a coerced question when the batch has too few other
// answers to use as distractors.
var fillerOptions = []string{
	"None of the above",
	"Not covered by the reference material",
	"It depends on the command's instruction",
}

// idNamespace scopes the name-based ids assigned to questions that arrive
// without one.
var idNamespace = uuid.MustParse("5b1c7f0e-4d8a-4e0b-9a51-3f0c2d6e8a47")

// Quiz returns the valid questions in raws, in order, and the number of
// rejected items.
func Quiz(raws []json.RawMessage) ([]types.QuizQuestion, int) {
	cands := make([]Candidate, len(raws))
	var backs []string
	for i, r := range raws {
		cands[i] = Parse(r)
		if cands[i].Kind == KindFlashcard && cands[i].Back != "" {
			backs = append(backs, cands[i].Back)
		}
	}

	var (
		out      []types.QuizQuestion
		rejected int
	)
	for _, c := range cands {
		var (
			q  types.QuizQuestion
			ok bool
		)
		switch c.Kind {
		case KindQuiz:
			q, ok = quizFrom(c)
		case KindFlashcard:
			q, ok = coerce(c, backs)
		}
		if !ok || !ValidQuestion(q) {
			rejected++
			continue
		}
		out = append(out, q)
	}
	return out, rejected
}

func quizFrom(c Candidate) (types.QuizQuestion, bool) {
	correct, ok := resolveAnswer(c.CorrectAnswer, c.Options)
	if !ok {
		return types.QuizQuestion{}, false
	}
	id := c.ID
	if id == "" {
		id = nameID(c.Question)
	}
	return types.QuizQuestion{
		ID:            id,
		Question:      c.Question,
		Options:       c.Options,
		CorrectAnswer: correct,
		Explanation:   c.Explanation,
		Topic:         c.Topic,
	}, true
}

// resolveAnswer maps a correctAnswer onto the exact text of one option. An
// exact match wins, then a case-insensitive match, then a numeric index, then
// a single option letter.
func resolveAnswer(a answer, options []string) (string, bool) {
	if a.Text == "" && !a.IsNum {
		return "", false
	}
	for _, o := range options {
		if o == a.Text {
			return o, true
		}
	}
	for _, o := range options {
		if strings.EqualFold(o, a.Text) {
			return o, true
		}
	}
	if a.IsNum && a.Index >= 0 && a.Index < len(options) {
		return options[a.Index], true
	}
	if len(a.Text) == 1 {
		idx := int(strings.ToUpper(a.Text)[0]) - 'A'
		if idx >= 0 && idx < len(options) {
			return options[idx], true
		}
	}
	return "", false
}

// ValidQuestion reports whether q satisfies the quiz rules: an id, a question
// of at least 10 characters, at least two non-empty options, a correct answer
// that is one of the options, and an explanation of at least 20 characters.
func ValidQuestion(q types.QuizQuestion) bool {
	if q.ID == "" || utf8.RuneCountInString(strings.TrimSpace(q.Question)) < minQuestionLen {
		return false
	}
	if len(q.Options) < minOptions {
		return false
	}
	found := false
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return false
		}
		if o == q.CorrectAnswer {
			found = true
		}
	}
	if !found {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(q.Explanation)) >= minExplanationLen
}

var clozeMarkup = regexp.MustCompile(`\{\{(?:c\d+::)?([^{}]*?)(?:::[^{}]*)?\}\}`)

// coerce turns a flashcard-like item into a quiz question. Distractors come
// from the other answers in the batch, then from fillerOptions. The correct
// answer's position is derived from the question text so results are stable.
func coerce(c Candidate, backs []string) (types.QuizQuestion, bool) {
	if c.Front == "" || c.Back == "" {
		return types.QuizQuestion{}, false
	}
	question := clozeMarkup.ReplaceAllString(c.Front, "_____")

	options := []string{c.Back}
	seen := map[string]bool{strings.ToLower(c.Back): true}
	add := func(s string) {
		if len(options) >= coercedOptions || seen[strings.ToLower(s)] {
			return
		}
		seen[strings.ToLower(s)] = true
		options = append(options, s)
	}
	for _, b := range backs {
		add(b)
	}
	for _, f := range fillerOptions {
		add(f)
	}

	pos := int(nameID(question)[0]) % len(options)
	options[0], options[pos] = options[pos], options[0]

	explanation := strings.Join(c.Hints, " ")
	if utf8.RuneCountInString(explanation) < minExplanationLen {
		explanation = fmt.Sprintf("The reference material gives the answer as %q.", c.Back)
	}

	return types.QuizQuestion{
		ID:            nameID(question),
		Question:      question,
		Options:       options,
		CorrectAnswer: c.Back,
		Explanation:   explanation,
		Topic:         c.Topic,
	}, true
}

func nameID(s string) string {
	return uuid.NewSHA1(idNamespace, []byte(s)).String()
}

// Flashcards returns the valid cards in raws, in order, and the number of
// rejected items. Malformed cloze cards are rejected, not repaired.
func Flashcards(raws []json.RawMessage) ([]types.Flashcard, int) {
	var (
		out      []types.Flashcard
		rejected int
	)
	for _, r := range raws {
		c := Parse(r)
		if c.Kind != KindFlashcard {
			rejected++
			continue
		}
		card := types.Flashcard{
			Front:      c.Front,
			Back:       c.Back,
			Type:       types.FlashcardType(c.CardType),
			Topic:      c.Topic,
			Difficulty: normalizeDifficulty(c.Difficulty),
			Hints:      c.Hints,
			Tags:       c.Tags,
			Metadata:   c.Metadata,
		}
		if card.Type == "" {
			card.Type = types.CardBasic
			if strings.Contains(card.Front, "{{") {
				card.Type = types.CardCloze
			}
		}
		if !ValidFlashcard(card) {
			rejected++
			continue
		}
		out = append(out, card)
	}
	return out, rejected
}

// ValidFlashcard reports whether card has a front and a back, a known type,
// and, for cloze cards, one to three well-formed deletions on the front.
func ValidFlashcard(card types.Flashcard) bool {
	if strings.TrimSpace(card.Front) == "" || strings.TrimSpace(card.Back) == "" {
		return false
	}
	switch card.Type {
	case types.CardBasic:
		return true
	case types.CardCloze:
		n, ok := ClozeSpans(card.Front)
		return ok && n >= 1 && n <= maxClozeSpans
	}
	return false
}

// ClozeSpans counts the {{...}} deletions in front. ok is false when braces
// are unbalanced, a span is nested inside another, or a span is empty.
func ClozeSpans(front string) (n int, ok bool) {
	open := -1
	for i := 0; i < len(front); {
		switch {
		case strings.HasPrefix(front[i:], "{{"):
			if open >= 0 {
				return 0, false
			}
			open = i + 2
			i += 2
		case strings.HasPrefix(front[i:], "}}"):
			if open < 0 {
				return 0, false
			}
			if clozeBody(front[open:i]) == "" {
				return 0, false
			}
			open = -1
			n++
			i += 2
		default:
			i++
		}
	}
	if open >= 0 {
		return 0, false
	}
	return n, true
}

var clozePrefix = regexp.MustCompile(`^c\d+::`)

// clozeBody returns the answer text of a span, without a cN:: prefix or a
// ::hint suffix.
func clozeBody(span string) string {
	span = clozePrefix.ReplaceAllString(span, "")
	if i := strings.Index(span, "::"); i >= 0 {
		span = span[:i]
	}
	return strings.TrimSpace(span)
}

func normalizeDifficulty(d string) string {
	switch d {
	case "easy", "medium", "hard":
		return d
	case "beginner", "basic", "low":
		return "easy"
	case "intermediate", "moderate":
		return "medium"
	case "advanced", "difficult", "high":
		return "hard"
	}
	return ""
}

// Summary returns the non-empty summary fragments in raws, in order, and the
// number of rejected items. An element may be a string or an array of
// strings.
func Summary(raws []json.RawMessage) ([]string, int) {
	var (
		out      []string
		rejected int
	)
	for _, r := range raws {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			if strings.TrimSpace(s) == "" {
				rejected++
				continue
			}
			out = append(out, strings.TrimSpace(s))
			continue
		}
		var parts []string
		if err := json.Unmarshal(r, &parts); err != nil {
			rejected++
			continue
		}
		kept := 0
		for _, p := range parts {
			if strings.TrimSpace(p) != "" {
				out = append(out, strings.TrimSpace(p))
				kept++
			}
		}
		if kept == 0 {
			rejected++
		}
	}
	return out, rejected
}
