// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the study-engine pipeline:
// content types, chunks, generated items, and the artifacts returned to callers.
package types

import (
	"fmt"
	"strings"
)

// ContentType selects which artifact the pipeline produces. It determines
// which validation and combination branch runs.
type ContentType string

const (
	ContentQuiz       ContentType = "quiz"
	ContentFlashcards ContentType = "flashcards"
	ContentSummary    ContentType = "summary"
)

// ParseContentType converts a user-supplied name into a ContentType.
func ParseContentType(s string) (ContentType, error) {
	switch ct := ContentType(strings.ToLower(strings.TrimSpace(s))); ct {
	case ContentQuiz, ContentFlashcards, ContentSummary:
		return ct, nil
	}
	return "", fmt.Errorf("%w: %q (want quiz, flashcards, or summary)", ErrInvalidContentType, s)
}

// SummaryFormat is the optional presentation hint sent with summary requests.
type SummaryFormat string

const (
	FormatNone   SummaryFormat = ""
	FormatBullet SummaryFormat = "bullet"
	FormatTLDR   SummaryFormat = "tldr"
	FormatQA     SummaryFormat = "qa"
)

// ParseSummaryFormat validates a format name. The empty string is accepted
// and means no format hint.
func ParseSummaryFormat(s string) (SummaryFormat, error) {
	switch f := SummaryFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatNone, FormatBullet, FormatTLDR, FormatQA:
		return f, nil
	}
	return "", fmt.Errorf("unsupported summary format %q: use bullet, tldr, or qa", s)
}

// Chunk is a bounded slice of preprocessed input, annotated with its position
// and the context carried forward from the previous chunk. A Chunk is created
// by the chunker and consumed once by the orchestrator.
type Chunk struct {
	// Text is the chunk's own content. It never includes injected context, so
	// concatenating Text across all chunks reproduces the input.
	Text string `json:"text" yaml:"text"`

	// Index is the zero-based position of the chunk.
	Index int `json:"index" yaml:"index"`

	// TotalChunks is the number of chunks the input was split into.
	TotalChunks int `json:"total_chunks" yaml:"total_chunks"`

	// PreviousContext is the overlap window and context summary taken from
	// the previous chunk. Empty for the first chunk.
	PreviousContext string `json:"previous_context,omitempty" yaml:"previous_context,omitempty"`

	// Topics holds up to three topic labels from the fixed vocabulary.
	Topics []string `json:"topics,omitempty" yaml:"topics,omitempty"`
}

// QuizQuestion is one multiple-choice question. CorrectAnswer is always one
// of Options.
type QuizQuestion struct {
	ID            string   `json:"id" yaml:"id"`
	Question      string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correct_answer"`
	Explanation   string   `json:"explanation" yaml:"explanation"`
	Topic         string   `json:"topic,omitempty" yaml:"topic,omitempty"`
}

// FlashcardType distinguishes plain cards from cloze deletions.
type FlashcardType string

const (
	CardBasic FlashcardType = "basic"
	CardCloze FlashcardType = "cloze"
)

// Flashcard is one study card. For cloze cards Front holds one to three
// {{...}} spans.
type Flashcard struct {
	Front      string            `json:"front" yaml:"front"`
	Back       string            `json:"back" yaml:"back"`
	Type       FlashcardType     `json:"type" yaml:"type"`
	Topic      string            `json:"topic,omitempty" yaml:"topic,omitempty"`
	Difficulty string            `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Hints      []string          `json:"hints,omitempty" yaml:"hints,omitempty"`
	Tags       []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// QuizMetadata summarizes a quiz set.
type QuizMetadata struct {
	Count  int      `json:"count" yaml:"count"`
	Topics []string `json:"topics" yaml:"topics"`
}

// QuizSet is the deduplicated question set produced for ContentQuiz.
type QuizSet struct {
	Questions []QuizQuestion `json:"questions" yaml:"questions"`
	Metadata  QuizMetadata   `json:"metadata" yaml:"metadata"`
}

// DeckMetadata summarizes a flashcard deck.
type DeckMetadata struct {
	CardCount int      `json:"cardCount" yaml:"card_count"`
	Topics    []string `json:"topics" yaml:"topics"`
}

// FlashcardDeck is the deduplicated card list produced for ContentFlashcards.
type FlashcardDeck struct {
	Cards    []Flashcard  `json:"cards" yaml:"cards"`
	Metadata DeckMetadata `json:"metadata" yaml:"metadata"`
}

// Summary is the concatenation of per-chunk summary fragments.
type Summary struct {
	Text   string        `json:"text" yaml:"text"`
	Format SummaryFormat `json:"format,omitempty" yaml:"format,omitempty"`
}

// Report records how completely a pipeline run succeeded. Partial success is
// not an error; callers inspect the report when they care.
type Report struct {
	ChunksTotal       int   `json:"chunksTotal" yaml:"chunks_total"`
	ChunksSucceeded   int   `json:"chunksSucceeded" yaml:"chunks_succeeded"`
	ChunksSkipped     []int `json:"chunksSkipped,omitempty" yaml:"chunks_skipped,omitempty"`
	ItemsReceived     int   `json:"itemsReceived" yaml:"items_received"`
	ItemsRejected     int   `json:"itemsRejected" yaml:"items_rejected"`
	DuplicatesRemoved int   `json:"duplicatesRemoved" yaml:"duplicates_removed"`
}

// Partial reports whether any chunk was skipped.
func (r Report) Partial() bool {
	return len(r.ChunksSkipped) > 0
}

// Artifact is the typed output of one pipeline invocation. Exactly one of
// Quiz, Deck, or Summary is set, matching Type.
type Artifact struct {
	Type    ContentType    `json:"type" yaml:"type"`
	Quiz    *QuizSet       `json:"quiz,omitempty" yaml:"quiz,omitempty"`
	Deck    *FlashcardDeck `json:"deck,omitempty" yaml:"deck,omitempty"`
	Summary *Summary       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Report  Report         `json:"report" yaml:"report"`
}

// ItemCount returns the number of questions or cards, or 1 for a non-empty
// summary.
func (a *Artifact) ItemCount() int {
	switch {
	case a.Quiz != nil:
		return len(a.Quiz.Questions)
	case a.Deck != nil:
		return len(a.Deck.Cards)
	case a.Summary != nil && a.Summary.Text != "":
		return 1
	}
	return 0
}
