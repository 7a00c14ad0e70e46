// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunk

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeSection builds a "# Section n" block of exactly total characters. All
// but the last block end in a blank line.
func makeSection(n, total int, last bool) string {
	head := fmt.Sprintf("# Section %d\n\n", n)
	tail := "\n\n"
	if last {
		tail = ""
	}
	fill := total - len(head) - len(tail)
	body := strings.Repeat("Sailors maintain watch standards. ", fill/34+1)[:fill]
	return head + body + tail
}

func joinTexts(chunks []string) string { return strings.Join(chunks, "") }

func texts(t *testing.T, c *Chunker, text string) []string {
	t.Helper()
	var out []string
	for _, ch := range c.Split(text) {
		out = append(out, ch.Text)
	}
	return out
}

func TestSplit_Empty(t *testing.T) {
	c := New(Config{})
	assert.Nil(t, c.Split(""))
	assert.Nil(t, c.Split("  \n "))
}

func TestSplit_SingleChunk(t *testing.T) {
	c := New(Config{MaxChunkSize: 100})
	chunks := c.Split("A short safety brief.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short safety brief.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].TotalChunks)
	assert.Empty(t, chunks[0].PreviousContext)
	assert.Equal(t, []string{"Safety"}, chunks[0].Topics)
}

func TestSplit_TenThousandCharsIntoFour(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 4; i++ {
		b.WriteString(makeSection(i, 2500, i == 4))
	}
	text := b.String()
	require.Equal(t, 10000, len(text))

	c := New(Config{MaxChunkSize: 2500})
	chunks := c.Split(text)
	require.Len(t, chunks, 4)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, 4, ch.TotalChunks)
		assert.True(t, strings.HasPrefix(ch.Text, fmt.Sprintf("# Section %d", i+1)),
			"chunk %d should start with its heading, got %q", i, ch.Text[:20])
		assert.LessOrEqual(t, len(ch.Text), 2500)
	}
}

func TestSplit_OrderPreservedAndBounded(t *testing.T) {
	var b strings.Builder
	b.WriteString("# Advancement Overview\n\n")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "Candidates for E-%d must complete the required PMA worksheets before the exam cycle closes. ", 4+i%4)
		if i%5 == 4 {
			b.WriteString("\n\n")
		}
	}
	b.WriteString("\n\n## Checklist\n\n")
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&b, "%d. Verify the evaluation record for cycle %d is complete and signed.\n", i, i)
	}
	b.WriteString("\nKey terms: FMS is the final multiple score. SIPG counts service in paygrade.")
	text := b.String()

	for _, max := range []int{200, 500, 1000, 1800} {
		t.Run(fmt.Sprintf("max=%d", max), func(t *testing.T) {
			c := New(Config{MaxChunkSize: max})
			got := texts(t, c, text)
			require.Greater(t, len(got), 1)
			assert.Equal(t, text, joinTexts(got), "chunks must reassemble the input in order")
			for i, ch := range got {
				assert.LessOrEqual(t, size(ch), max, "chunk %d exceeds limit: %q", i, ch)
			}
		})
	}
}

func TestSplit_OversizedSentenceIsAtomic(t *testing.T) {
	long := strings.Repeat("x", 120)
	text := "Short one. " + long + ". Tail bit."

	c := New(Config{MaxChunkSize: 50})
	got := texts(t, c, text)
	require.Equal(t, []string{"Short one. ", long + ". ", "Tail bit."}, got)
	assert.Equal(t, text, joinTexts(got))
}

func TestSplit_PreviousContextBounds(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 4; i++ {
		b.WriteString(makeSection(i, 2500, i == 4))
	}
	cfg := Config{MaxChunkSize: 2500, OverlapRatio: 0.3, ContextCap: 300}
	chunks := New(cfg).Split(b.String())
	require.Len(t, chunks, 4)

	window := int(math.Ceil(0.3 * 2500))
	assert.Empty(t, chunks[0].PreviousContext)
	for i := 1; i < len(chunks); i++ {
		pc := chunks[i].PreviousContext
		require.NotEmpty(t, pc)
		assert.LessOrEqual(t, size(pc), cfg.ContextCap+window+2)
		assert.Contains(t, pc, Overlap(chunks[i-1].Text, window))
		assert.Contains(t, pc, fmt.Sprintf("# Section %d", i), "heading of previous chunk belongs in the context summary")
	}
}

func TestSplit_ContextDisabled(t *testing.T) {
	text := strings.Repeat("Plain words here.\n\n", 20)
	chunks := New(Config{MaxChunkSize: 100, OverlapRatio: -1, ContextCap: -1}).Split(text)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.Empty(t, ch.PreviousContext)
	}
}

func TestNew_Defaults(t *testing.T) {
	cfg := New(Config{OverlapRatio: 3}).Config()
	assert.Equal(t, 4000, cfg.MaxChunkSize)
	assert.Equal(t, 1.0, cfg.OverlapRatio)
	assert.Equal(t, 300, cfg.ContextCap)
	assert.Equal(t, 3, cfg.MaxTopics)
}

func TestBoundaryLevels(t *testing.T) {
	tests := []struct {
		level string
		text  string
		want  []string
	}{
		{"heading", "intro\n# One\nbody\n## Two\nmore", []string{"intro\n", "# One\nbody\n", "## Two\nmore"}},
		{"paragraph", "a\n\nb\n\n\nc", []string{"a\n\n", "b\n\n\n", "c"}},
		{"list", "Steps\n1. one\n2) two\n- three\n• four", []string{"Steps\n", "1. one\n", "2) two\n", "- three\n", "• four"}},
		{"topic", "Intro line\nWatch Bill: posted daily\nRelief: on time", []string{"Intro line\n", "Watch Bill: posted daily\n", "Relief: on time"}},
		{"sentence", "One. Two! Three? \"Four.\" Five", []string{"One. ", "Two! ", "Three? ", "\"Four.\" ", "Five"}},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var lvl boundaryLevel
			for _, l := range boundaryLevels {
				if l.name == tt.level {
					lvl = l
				}
			}
			require.NotNil(t, lvl.pattern)
			assert.Equal(t, tt.want, lvl.split(tt.text))
		})
	}
}

func TestOverlap(t *testing.T) {
	assert.Equal(t, "charlie", Overlap("alpha bravo charlie", 9))
	assert.Equal(t, "bravo charlie", Overlap("alpha bravo charlie", 14))
	assert.Equal(t, "alpha bravo", Overlap("  alpha bravo ", 100))
	assert.Empty(t, Overlap("alpha", 0))
	assert.Empty(t, Overlap("abcdefghij", 3), "a window inside one long word yields nothing")
}

func TestContextSummary(t *testing.T) {
	text := "# Rates\nThe E-6 exam covers 150 questions. Weather was nice today. OPNAV requires it.\nRandom words here."
	assert.Equal(t, "# Rates\nThe E-6 exam covers 150 questions.\nOPNAV requires it.", ContextSummary(text, 300))
	assert.Equal(t, "# Rates", ContextSummary(text, 20))
	assert.Empty(t, ContextSummary(text, 0))
	assert.Empty(t, ContextSummary("nothing notable here.", 300))
}

func TestContextSummary_RespectsCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "NAVPERS form %d is due in %d days.\n", i, i+1)
	}
	got := ContextSummary(b.String(), 120)
	assert.LessOrEqual(t, size(got), 120)
	assert.True(t, strings.HasPrefix(got, "NAVPERS form 0 is due in 1 days."))
}

func TestTopics(t *testing.T) {
	assert.Equal(t, []string{"Damage Control", "Safety"},
		Topics("Safety first: wear PPE. Fire and flooding drills. Damage control.", 3))
	assert.Equal(t, []string{"Navigation", "Engineering", "Safety"},
		Topics("engine boiler chart navigation safety", 3), "ties keep vocabulary order")
	assert.Equal(t, []string{"Navigation", "Engineering"},
		Topics("engine boiler chart navigation safety", 2))
	assert.Nil(t, Topics("the quick brown fox", 3))
	assert.Nil(t, Topics("safety", 0))
}

func TestTopics_WordBoundaries(t *testing.T) {
	// "formation" must not count as the keyword "form".
	assert.Nil(t, Topics("formation flying", 3))
	assert.Equal(t, []string{"Administration"}, Topics("Submit the forms.", 3))
}

var headingLine = regexp.MustCompile(`(?m)^# `)

func TestSplit_HeadingsNeverSplitFromBody(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 6; i++ {
		b.WriteString(makeSection(i, 300, i == 6))
	}
	for _, ch := range New(Config{MaxChunkSize: 700}).Split(b.String()) {
		assert.True(t, strings.HasPrefix(ch.Text, "# Section"))
		assert.Equal(t, 2, len(headingLine.FindAllString(ch.Text, -1)))
	}
}
