// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the full content-generation flow: preprocess, chunk,
// generate per chunk, validate, deduplicate, and combine into one artifact.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/study-engine/internal/chunk"
	"github.com/pdiddy/study-engine/internal/combine"
	"github.com/pdiddy/study-engine/internal/dedup"
	"github.com/pdiddy/study-engine/internal/generate"
	"github.com/pdiddy/study-engine/internal/preprocess"
	"github.com/pdiddy/study-engine/internal/validate"
	"github.com/pdiddy/study-engine/pkg/types"
)

// Config holds the settings a Generator applies to every run.
type Config struct {
	Chunking     types.ChunkingConfig
	Dedup        types.DedupConfig
	Orchestrator generate.Config
}

// ConfigFrom derives a pipeline Config from the CLI configuration.
func ConfigFrom(cfg types.Config) Config {
	return Config{
		Chunking:     cfg.Chunking,
		Dedup:        cfg.Dedup,
		Orchestrator: generate.ConfigFrom(cfg.Generation),
	}
}

// Options are per-call overrides. Zero values fall back to the Generator's
// Config.
type Options struct {
	MaxChunkSize           int
	DeduplicationThreshold float64
	Format                 types.SummaryFormat
	OnProgress             generate.ProgressFunc
}

// Generator turns free-form text into a study artifact. It holds no state
// between calls and may be used by several goroutines at once.
type Generator struct {
	backend generate.Backend
	cfg     Config
	logger  *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger used by the Generator and its orchestrator.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// NewGenerator returns a Generator that sends chunks to backend.
func NewGenerator(backend generate.Backend, cfg Config, opts ...Option) *Generator {
	g := &Generator{
		backend: backend,
		cfg:     cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateContent produces an artifact of type ct from content. It returns
// types.ErrEmptyContent when nothing survives preprocessing,
// types.ErrNoContentGenerated when no chunk produced data, and
// types.ErrNoValidItems when every returned item failed validation. A run in
// which some chunks were skipped succeeds; the artifact's Report says so.
func (g *Generator) GenerateContent(ctx context.Context, content string, ct types.ContentType, opts Options) (*types.Artifact, error) {
	if _, err := types.ParseContentType(string(ct)); err != nil {
		return nil, err
	}

	text, err := preprocess.PreprocessWithLimit(content, g.cfg.Chunking.MaxInputLength)
	if err != nil {
		return nil, err
	}

	ccfg := chunk.Config{
		MaxChunkSize: g.cfg.Chunking.MaxChunkSize,
		OverlapRatio: g.cfg.Chunking.OverlapRatio,
		ContextCap:   g.cfg.Chunking.ContextCap,
		MaxTopics:    g.cfg.Chunking.MaxTopics,
	}
	if opts.MaxChunkSize > 0 {
		ccfg.MaxChunkSize = opts.MaxChunkSize
	}
	chunks := chunk.New(ccfg).Split(text)
	if len(chunks) == 0 {
		return nil, types.ErrEmptyContent
	}
	g.logger.Info("split input",
		zap.String("type", string(ct)),
		zap.Int("chars", len([]rune(text))),
		zap.Int("chunks", len(chunks)))

	orch := generate.NewOrchestrator(g.backend, g.cfg.Orchestrator, generate.WithLogger(g.logger))
	outcome, err := orch.Process(ctx, chunks, ct, opts.Format, opts.OnProgress)
	if err != nil {
		return nil, err
	}

	threshold := g.cfg.Dedup.Threshold
	if opts.DeduplicationThreshold > 0 {
		threshold = opts.DeduplicationThreshold
	}

	art := &types.Artifact{
		Type: ct,
		Report: types.Report{
			ChunksTotal:     outcome.Total,
			ChunksSucceeded: outcome.Succeeded(),
			ChunksSkipped:   outcome.Skipped,
		},
	}
	switch ct {
	case types.ContentQuiz:
		err = assembleQuiz(art, outcome, threshold)
	case types.ContentFlashcards:
		err = assembleDeck(art, outcome, threshold)
	case types.ContentSummary:
		err = assembleSummary(art, outcome, opts.Format)
	}
	if err != nil {
		return nil, err
	}

	g.logger.Info("generated artifact",
		zap.String("type", string(ct)),
		zap.Int("items", art.ItemCount()),
		zap.Ints("skipped_chunks", art.Report.ChunksSkipped),
		zap.Int("rejected", art.Report.ItemsRejected),
		zap.Int("duplicates", art.Report.DuplicatesRemoved))
	return art, nil
}

func assembleQuiz(art *types.Artifact, outcome generate.Outcome, threshold float64) error {
	var (
		all          []types.QuizQuestion
		contributing int
	)
	for _, res := range outcome.Results {
		qs, rejected := validate.Quiz(res.Items)
		art.Report.ItemsReceived += len(res.Items)
		art.Report.ItemsRejected += rejected
		for i := range qs {
			if qs[i].Topic == "" {
				qs[i].Topic = firstTopic(res.Chunk)
			}
		}
		if len(qs) > 0 {
			contributing++
		}
		all = append(all, qs...)
	}
	if len(all) == 0 {
		return fmt.Errorf("%w: %d items rejected", types.ErrNoValidItems, art.Report.ItemsRejected)
	}
	if contributing > 1 && len(all) > 1 {
		kept := dedup.Quiz(all, threshold)
		art.Report.DuplicatesRemoved = len(all) - len(kept)
		all = kept
	}
	art.Quiz = combine.Quiz(all)
	return nil
}

func assembleDeck(art *types.Artifact, outcome generate.Outcome, threshold float64) error {
	var (
		all          []types.Flashcard
		contributing int
	)
	for _, res := range outcome.Results {
		cards, rejected := validate.Flashcards(res.Items)
		art.Report.ItemsReceived += len(res.Items)
		art.Report.ItemsRejected += rejected
		for i := range cards {
			if cards[i].Topic == "" {
				cards[i].Topic = firstTopic(res.Chunk)
			}
		}
		if len(cards) > 0 {
			contributing++
		}
		all = append(all, cards...)
	}
	if len(all) == 0 {
		return fmt.Errorf("%w: %d items rejected", types.ErrNoValidItems, art.Report.ItemsRejected)
	}
	if contributing > 1 && len(all) > 1 {
		kept := dedup.Flashcards(all, threshold)
		art.Report.DuplicatesRemoved = len(all) - len(kept)
		all = kept
	}
	art.Deck = combine.Flashcards(all)
	return nil
}

func assembleSummary(art *types.Artifact, outcome generate.Outcome, format types.SummaryFormat) error {
	var fragments []string
	for _, res := range outcome.Results {
		parts, rejected := validate.Summary(res.Items)
		art.Report.ItemsReceived += len(res.Items)
		art.Report.ItemsRejected += rejected
		fragments = append(fragments, parts...)
	}
	if len(fragments) == 0 {
		return fmt.Errorf("%w: %d fragments rejected", types.ErrNoValidItems, art.Report.ItemsRejected)
	}
	art.Summary = combine.Summary(fragments, format)
	return nil
}

func firstTopic(c types.Chunk) string {
	if len(c.Topics) == 0 {
		return ""
	}
	return c.Topics[0]
}
