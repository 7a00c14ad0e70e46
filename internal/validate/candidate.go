// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which item shape a raw element was parsed as.
type Kind int

const (
	KindInvalid Kind = iota
	KindQuiz
	KindFlashcard
)

func (k Kind) String() string {
	switch k {
	case KindQuiz:
		return "quiz"
	case KindFlashcard:
		return "flashcard"
	}
	return "invalid"
}

// Candidate is one raw element parsed into the variant it most resembles.
// Fields not belonging to Kind are zero.
type Candidate struct {
	Kind Kind

	ID            string
	Question      string
	Options       []string
	CorrectAnswer answer
	Explanation   string

	Front      string
	Back       string
	CardType   string
	Difficulty string
	Hints      []string
	Tags       []string
	Metadata   map[string]string

	Topic string
}

// answer is a correctAnswer value: the option text, or an index into the
// options when the backend sent a number.
type answer struct {
	Text  string
	Index int
	IsNum bool
}

// Parse classifies raw as a quiz question, a flashcard-like item, or invalid.
// A quiz question is recognised by a question or options key; a flashcard by
// a front or back key. Anything else, including non-objects, is invalid.
func Parse(raw json.RawMessage) Candidate {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil || keys == nil {
		return Candidate{Kind: KindInvalid}
	}

	var item struct {
		ID            flexString      `json:"id"`
		Question      flexString      `json:"question"`
		Options       []flexString    `json:"options"`
		CorrectAnswer json.RawMessage `json:"correctAnswer"`
		Explanation   flexString      `json:"explanation"`
		Topic         flexString      `json:"topic"`
		Front         flexString      `json:"front"`
		Back          flexString      `json:"back"`
		Type          flexString      `json:"type"`
		Difficulty    flexString      `json:"difficulty"`
		Hints         []flexString    `json:"hints"`
		Hint          flexString      `json:"hint"`
		Tags          []flexString    `json:"tags"`
		Metadata      map[string]any  `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return Candidate{Kind: KindInvalid}
	}

	c := Candidate{Topic: strings.TrimSpace(string(item.Topic))}
	switch {
	case has(keys, "question", "options"):
		c.Kind = KindQuiz
		c.ID = strings.TrimSpace(string(item.ID))
		c.Question = strings.TrimSpace(string(item.Question))
		for _, o := range item.Options {
			c.Options = append(c.Options, strings.TrimSpace(string(o)))
		}
		c.CorrectAnswer = parseAnswer(item.CorrectAnswer)
		c.Explanation = strings.TrimSpace(string(item.Explanation))
	case has(keys, "front", "back"):
		c.Kind = KindFlashcard
		c.Front = strings.TrimSpace(string(item.Front))
		c.Back = strings.TrimSpace(string(item.Back))
		c.CardType = strings.ToLower(strings.TrimSpace(string(item.Type)))
		c.Difficulty = strings.ToLower(strings.TrimSpace(string(item.Difficulty)))
		c.Hints = trimAll(item.Hints)
		if h := strings.TrimSpace(string(item.Hint)); h != "" {
			c.Hints = append(c.Hints, h)
		}
		c.Tags = trimAll(item.Tags)
		if len(item.Metadata) > 0 {
			c.Metadata = make(map[string]string, len(item.Metadata))
			for k, v := range item.Metadata {
				c.Metadata[k] = fmt.Sprint(v)
			}
		}
	default:
		c.Kind = KindInvalid
	}
	return c
}

func has(keys map[string]json.RawMessage, names ...string) bool {
	for _, n := range names {
		if _, ok := keys[n]; ok {
			return true
		}
	}
	return false
}

func parseAnswer(raw json.RawMessage) answer {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return answer{}
	}
	if i, err := strconv.Atoi(string(raw)); err == nil {
		return answer{Index: i, IsNum: true, Text: string(raw)}
	}
	var s flexString
	if err := json.Unmarshal(raw, &s); err != nil {
		return answer{}
	}
	return answer{Text: strings.TrimSpace(string(s))}
}

func trimAll(in []flexString) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(string(s)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// flexString accepts a JSON string, number, or boolean. null decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if b[0] == '{' || b[0] == '[' {
		return fmt.Errorf("expected a scalar, got %s", b[:1])
	}
	*f = flexString(b)
	return nil
}
