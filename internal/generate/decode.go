// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/study-engine/pkg/types"
)

// errEmptyData reports a successful response that carried nothing usable.
var errEmptyData = errors.New("response contained no items")

// wrapperKeys are the object keys under which a backend may nest its item
// array.
var wrapperKeys = []string{"questions", "flashcards", "cards", "items", "data"}

// DecodeItems extracts the raw items from a response payload. For quizzes and
// flashcards it returns the elements of the item array; for summaries it
// returns one JSON string per summary fragment. An empty or unrecognised
// payload is an error so the caller can retry.
func DecodeItems(ct types.ContentType, data json.RawMessage) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, errEmptyData
	}

	// Some backends double-encode: the payload is a string holding JSON.
	if data[0] == '"' && ct != types.ContentSummary {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("decoding data: %w", err)
		}
		return DecodeItems(ct, json.RawMessage(CleanJSON(inner)))
	}

	if ct == types.ContentSummary {
		return decodeSummary(data)
	}
	return decodeItemArray(data)
}

func decodeItemArray(data json.RawMessage) ([]json.RawMessage, error) {
	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decoding item array: %w", err)
		}
		if len(items) == 0 {
			return nil, errEmptyData
		}
		return items, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("decoding item object: %w", err)
		}
		for _, k := range wrapperKeys {
			if inner, ok := obj[k]; ok {
				return decodeItemArray(bytes.TrimSpace(inner))
			}
		}
		if _, ok := obj["question"]; ok {
			return []json.RawMessage{data}, nil
		}
		if _, ok := obj["front"]; ok {
			return []json.RawMessage{data}, nil
		}
		return nil, fmt.Errorf("unrecognised item object with keys %s", strings.Join(sortedKeys(obj), ", "))
	default:
		return nil, fmt.Errorf("unexpected payload starting with %q", data[0])
	}
}

func decodeSummary(data json.RawMessage) ([]json.RawMessage, error) {
	var parts []string
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decoding summary string: %w", err)
		}
		parts = []string{s}
	case '[':
		if err := json.Unmarshal(data, &parts); err != nil {
			return nil, fmt.Errorf("decoding summary array: %w", err)
		}
	case '{':
		var obj struct {
			Summary *string `json:"summary"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("decoding summary object: %w", err)
		}
		if obj.Summary == nil {
			return nil, fmt.Errorf("summary object has no summary field")
		}
		parts = []string{*obj.Summary}
	default:
		return nil, fmt.Errorf("unexpected summary payload starting with %q", data[0])
	}

	var out []json.RawMessage
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		b, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, errEmptyData
	}
	return out, nil
}

// CleanJSON strips a surrounding Markdown code fence from model output.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
