// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/study-engine/pkg/types"
)

func TestDecodeItems(t *testing.T) {
	tests := []struct {
		name  string
		ct    types.ContentType
		data  string
		count int
		err   bool
	}{
		{"bare array", types.ContentQuiz, `[{"question":"a"},{"question":"b"}]`, 2, false},
		{"questions wrapper", types.ContentQuiz, `{"questions":[{"question":"a"}]}`, 1, false},
		{"cards wrapper", types.ContentFlashcards, `{"cards":[{"front":"a","back":"b"}]}`, 1, false},
		{"flashcards wrapper", types.ContentFlashcards, `{"flashcards":[{"front":"a"},{"front":"b"},{"front":"c"}]}`, 3, false},
		{"single object", types.ContentFlashcards, `{"front":"a","back":"b"}`, 1, false},
		{"double encoded", types.ContentQuiz, `"[{\"question\":\"a\"}]"`, 1, false},
		{"double encoded with fence", types.ContentQuiz, "\"```json\\n[{\\\"question\\\":\\\"a\\\"}]\\n```\"", 1, false},
		{"empty array", types.ContentQuiz, `[]`, 0, true},
		{"null", types.ContentQuiz, `null`, 0, true},
		{"missing", types.ContentQuiz, ``, 0, true},
		{"unknown object", types.ContentQuiz, `{"foo":1}`, 0, true},
		{"number", types.ContentQuiz, `7`, 0, true},
		{"summary object", types.ContentSummary, `{"summary":"text"}`, 1, false},
		{"summary string", types.ContentSummary, `"text"`, 1, false},
		{"summary array", types.ContentSummary, `["one","","two"]`, 2, false},
		{"summary blank", types.ContentSummary, `{"summary":"  "}`, 0, true},
		{"summary missing field", types.ContentSummary, `{"text":"x"}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := DecodeItems(tt.ct, json.RawMessage(tt.data))
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.count)
		})
	}
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `[1]`, CleanJSON("```json\n[1]\n```"))
	assert.Equal(t, `[1]`, CleanJSON("```\n[1]\n```"))
	assert.Equal(t, `{"a":1}`, CleanJSON("  {\"a\":1}  "))
	assert.Equal(t, `[1]`, CleanJSON("```json[1]```"))
}
