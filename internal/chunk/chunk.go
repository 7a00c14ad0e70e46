// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits preprocessed text into ordered, size-bounded chunks
// along semantic boundaries, tags each chunk with topics, and carries a
// context window forward from each chunk to the next.
package chunk

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/study-engine/pkg/types"
)

// Config controls chunk sizing and the context carried between chunks.
type Config struct {
	// MaxChunkSize is the upper bound on a chunk's Text, in characters.
	// A single sentence longer than this becomes its own, oversized chunk.
	MaxChunkSize int

	// OverlapRatio is the share of MaxChunkSize taken from a chunk's tail
	// and handed to the next chunk as context.
	OverlapRatio float64

	// ContextCap bounds the context summary extracted from each chunk.
	ContextCap int

	// MaxTopics is the number of topic labels attached to a chunk.
	MaxTopics int
}

// DefaultConfig returns the sizing used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize: 4000,
		OverlapRatio: 0.3,
		ContextCap:   300,
		MaxTopics:    3,
	}
}

// Chunker splits text into chunks. It holds no state between calls.
type Chunker struct {
	cfg Config
}

// New returns a Chunker. Zero fields in cfg take their DefaultConfig value;
// a negative OverlapRatio or ContextCap disables that part of the context.
func New(cfg Config) *Chunker {
	def := DefaultConfig()
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = def.MaxChunkSize
	}
	if cfg.OverlapRatio == 0 {
		cfg.OverlapRatio = def.OverlapRatio
	}
	if cfg.OverlapRatio > 1 {
		cfg.OverlapRatio = 1
	}
	if cfg.ContextCap == 0 {
		cfg.ContextCap = def.ContextCap
	}
	if cfg.MaxTopics <= 0 {
		cfg.MaxTopics = def.MaxTopics
	}
	return &Chunker{cfg: cfg}
}

// Config returns the effective configuration.
func (c *Chunker) Config() Config { return c.cfg }

// Split divides text into chunks in source order. Concatenating the Text of
// the returned chunks reproduces text exactly; injected context lives only in
// PreviousContext.
func (c *Chunker) Split(text string) []types.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var bodies []string
	if size(text) <= c.cfg.MaxChunkSize {
		bodies = []string{text}
	} else {
		bodies = c.pack(c.sections(text, 0))
	}

	chunks := make([]types.Chunk, len(bodies))
	for i, body := range bodies {
		chunks[i] = types.Chunk{
			Text:        body,
			Index:       i,
			TotalChunks: len(bodies),
			Topics:      Topics(body, c.cfg.MaxTopics),
		}
		if i > 0 {
			chunks[i].PreviousContext = c.carryContext(bodies[i-1])
		}
	}
	return chunks
}

// sections recursively splits text at the boundary level lvl and deeper until
// every section fits MaxChunkSize or no boundary level remains.
func (c *Chunker) sections(text string, lvl int) []string {
	if size(text) <= c.cfg.MaxChunkSize || lvl >= len(boundaryLevels) {
		return []string{text}
	}
	parts := boundaryLevels[lvl].split(text)
	if len(parts) <= 1 {
		return c.sections(text, lvl+1)
	}
	var out []string
	for _, p := range parts {
		out = append(out, c.sections(p, lvl+1)...)
	}
	return out
}

// pack greedily fills chunks with consecutive sections. A chunk is sealed when
// the next section would push it past MaxChunkSize.
func (c *Chunker) pack(sections []string) []string {
	var (
		out    []string
		buf    strings.Builder
		bufLen int
	)
	seal := func() {
		if bufLen > 0 {
			out = append(out, buf.String())
		}
		buf.Reset()
		bufLen = 0
	}
	for _, sec := range sections {
		n := size(sec)
		if bufLen > 0 && bufLen+n > c.cfg.MaxChunkSize {
			seal()
		}
		buf.WriteString(sec)
		bufLen += n
	}
	seal()
	return out
}

// carryContext builds the PreviousContext handed from a sealed chunk to the
// next: the context summary followed by the tail overlap window.
func (c *Chunker) carryContext(prev string) string {
	var parts []string
	if c.cfg.ContextCap > 0 {
		if s := ContextSummary(prev, c.cfg.ContextCap); s != "" {
			parts = append(parts, s)
		}
	}
	if c.cfg.OverlapRatio > 0 {
		window := int(math.Ceil(c.cfg.OverlapRatio * float64(c.cfg.MaxChunkSize)))
		if tail := Overlap(prev, window); tail != "" {
			parts = append(parts, tail)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Overlap returns at most window characters from the end of text, starting
// at a word boundary so no partial word leads the overlap.
func Overlap(text string, window int) string {
	if window <= 0 {
		return ""
	}
	if size(text) <= window {
		return strings.TrimSpace(text)
	}

	start := len(text)
	for n := 0; n < window; n++ {
		_, w := utf8.DecodeLastRuneInString(text[:start])
		start -= w
	}

	// Inside a word: move forward to the next whitespace.
	prev, _ := utf8.DecodeLastRuneInString(text[:start])
	if !isSpace(prev) {
		for start < len(text) {
			r, w := utf8.DecodeRuneInString(text[start:])
			if isSpace(r) {
				break
			}
			start += w
		}
	}
	return strings.TrimSpace(text[start:])
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}

// size measures text in characters.
func size(s string) int {
	return utf8.RuneCountInString(s)
}
