// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunk

import "regexp"

// boundaryLevel is one kind of semantic split point. Prefix boundaries cut
// before the match so the marker leads the following section; suffix
// boundaries cut after the match so the terminator stays with the text it ends.
type boundaryLevel struct {
	name    string
	pattern *regexp.Regexp
	suffix  bool
}

// boundaryLevels are tried in priority order. A deeper level only applies to
// sections that are still larger than the chunk limit.
var boundaryLevels = []boundaryLevel{
	{name: "heading", pattern: regexp.MustCompile(`(?m)^#{1,6}[ \t]`)},
	{name: "paragraph", pattern: regexp.MustCompile(`\n\n+`), suffix: true},
	{name: "list", pattern: regexp.MustCompile(`(?m)^(?:\d{1,3}[.)]|[a-zA-Z][.)]|[-*•])[ \t]`)},
	{name: "topic", pattern: regexp.MustCompile(`(?m)^[A-Z][^\n:.!?]{0,80}:[ \t]`)},
	{name: "sentence", pattern: regexp.MustCompile(`[.!?]["')\]]*[ \t\n]+`), suffix: true},
}

// split cuts text at every match of the level's pattern. The returned
// sections concatenate back to text.
func (b boundaryLevel) split(text string) []string {
	var cuts []int
	for _, loc := range b.pattern.FindAllStringIndex(text, -1) {
		pos := loc[0]
		if b.suffix {
			pos = loc[1]
		}
		if pos <= 0 || pos >= len(text) {
			continue
		}
		if n := len(cuts); n > 0 && cuts[n-1] == pos {
			continue
		}
		cuts = append(cuts, pos)
	}
	if len(cuts) == 0 {
		return []string{text}
	}

	out := make([]string, 0, len(cuts)+1)
	start := 0
	for _, pos := range cuts {
		out = append(out, text[start:pos])
		start = pos
	}
	return append(out, text[start:])
}
