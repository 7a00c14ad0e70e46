// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preprocess

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/study-engine/pkg/types"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "trims surrounding whitespace",
			in:   "   Damage control basics.  \n\n",
			want: "Damage control basics.",
		},
		{
			name: "collapses horizontal whitespace and tabs",
			in:   "Ship\t\t handling   and   mooring",
			want: "Ship handling and mooring",
		},
		{
			name: "preserves paragraph breaks",
			in:   "Paragraph one.\n\nParagraph two.",
			want: "Paragraph one.\n\nParagraph two.",
		},
		{
			name: "collapses three or more newlines to two",
			in:   "One.\n\n\n\n\nTwo.",
			want: "One.\n\nTwo.",
		},
		{
			name: "normalizes CRLF",
			in:   "Line one.\r\nLine two.\rLine three.",
			want: "Line one.\nLine two.\nLine three.",
		},
		{
			name: "drops spaces next to newlines",
			in:   "Heading   \n   body text",
			want: "Heading\nbody text",
		},
		{
			name: "keeps technical notation",
			in:   "E-6 FMS = PMA + (SIPG * 2); 95% @ {{cloze}} [ref] <tag> #1 ~2° §4",
			want: "E-6 FMS = PMA + (SIPG * 2); 95% @ {{cloze}} [ref] <tag> #1 ~2° §4",
		},
		{
			name: "strips emoji and control characters",
			in:   "Muster\x00 at 0800 \U0001F6A2 sharp\x07.",
			want: "Muster at 0800 sharp.",
		},
		{
			name: "strips box drawing",
			in:   "┌──┐ Table ┘",
			want: "Table",
		},
		{
			name: "composes to NFC",
			in:   "cafe\u0301",
			want: "caf\u00e9",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Preprocess(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPreprocess_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\t\n", "\U0001F600\U0001F600", "\x00\x01"} {
		_, err := Preprocess(in)
		assert.ErrorIs(t, err, types.ErrEmptyContent, "input %q", in)
	}
}

func TestPreprocessWithLimit_TruncatesPrefix(t *testing.T) {
	in := strings.Repeat("abcde ", 100)
	got, err := PreprocessWithLimit(in, 14)
	require.NoError(t, err)
	assert.Equal(t, "abcde abcde ab", got)

	got, err = PreprocessWithLimit("ééééé", 3)
	require.NoError(t, err)
	assert.Equal(t, "ééé", got)
	assert.True(t, utf8.ValidString(got))
}

func TestPreprocessWithLimit_TrailingSpaceAfterCut(t *testing.T) {
	got, err := PreprocessWithLimit("alpha bravo", 6)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got)
}

func TestPreprocess_DefaultLimit(t *testing.T) {
	in := strings.Repeat("x", DefaultMaxLength+500)
	got, err := Preprocess(in)
	require.NoError(t, err)
	assert.Len(t, got, DefaultMaxLength)

	got, err = PreprocessWithLimit(in, 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultMaxLength)
}

var idempotenceSeeds = []string{
	"",
	"plain",
	"  mixed \t\t spacing \n\n\n\n and   breaks \r\n end  ",
	"café and résumé",
	"Muster\x00\x1b[0m at \U0001F6A2 0800",
	"# Header\n\n1. First\n2. Second\n- bullet\n\nTopic: sentence.",
	"é́ ́ leading mark",
	" line separators\u0085next",
	strings.Repeat("long text with spaces   ", 50),
}

func TestPreprocess_Idempotent(t *testing.T) {
	for _, in := range idempotenceSeeds {
		for _, limit := range []int{5, 17, 64, DefaultMaxLength} {
			once, err := PreprocessWithLimit(in, limit)
			if err != nil {
				continue
			}
			twice, err := PreprocessWithLimit(once, limit)
			require.NoError(t, err)
			assert.Equal(t, once, twice, "input %q limit %d", in, limit)
		}
	}
}

func FuzzPreprocessIdempotent(f *testing.F) {
	for _, s := range idempotenceSeeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, in string) {
		if !utf8.ValidString(in) {
			t.Skip()
		}
		once, err := PreprocessWithLimit(in, 200)
		if err != nil {
			return
		}
		twice, err := PreprocessWithLimit(once, 200)
		if err != nil {
			t.Fatalf("second pass failed: %v", err)
		}
		if once != twice {
			t.Fatalf("not idempotent:\n once=%q\ntwice=%q", once, twice)
		}
	})
}
