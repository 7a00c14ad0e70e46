// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/study-engine/internal/retry"
	"github.com/pdiddy/study-engine/pkg/types"
)

// Config controls how the Orchestrator paces and retries requests.
type Config struct {
	Retry retry.Policy

	// RequestTimeout bounds a single attempt.
	RequestTimeout time.Duration

	// InterChunkDelay is waited between consecutive chunks.
	InterChunkDelay time.Duration

	// DegradedLines is how many leading lines of a chunk the final attempt
	// sends for content types in DegradedTypes. Zero disables degraded retry.
	DegradedLines int
	DegradedTypes []types.ContentType
}

// ConfigFrom maps the persisted generation settings onto an orchestrator
// Config. Flashcards get the degraded final attempt.
func ConfigFrom(g types.GenerationConfig) Config {
	return Config{
		Retry: retry.Policy{
			MaxRetries: g.Retry.MaxRetries,
			BaseDelay:  g.Retry.BaseDelay,
			MaxDelay:   g.Retry.MaxDelay,
		},
		RequestTimeout:  g.Timeout,
		InterChunkDelay: g.InterChunkDelay,
		DegradedLines:   g.DegradedLines,
		DegradedTypes:   []types.ContentType{types.ContentFlashcards},
	}
}

// ProgressFunc receives the 1-based chunk number being processed and a
// human-readable status line.
type ProgressFunc func(current int, message string)

// ChunkResult holds the raw items one chunk produced.
type ChunkResult struct {
	Chunk    types.Chunk
	Items    []json.RawMessage
	Attempts int
	Degraded bool
}

// Outcome is the result of processing every chunk.
type Outcome struct {
	Results []ChunkResult
	Skipped []int
	Total   int
}

// Succeeded returns the number of chunks that produced items.
func (o Outcome) Succeeded() int { return len(o.Results) }

// Orchestrator drives the backend over a chunk sequence.
type Orchestrator struct {
	backend Backend
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides the timestamp source used for requests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator returns an Orchestrator over backend. A zero RequestTimeout
// defaults to 90 seconds.
func NewOrchestrator(backend Backend, cfg Config, opts ...Option) *Orchestrator {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	o := &Orchestrator{
		backend: backend,
		cfg:     cfg,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process sends each chunk to the backend strictly in order, one request in
// flight at a time. A chunk whose attempts are exhausted is recorded in
// Outcome.Skipped and processing continues. Process returns
// types.ErrNoContentGenerated when no chunk succeeded, and the context error
// when ctx is cancelled.
func (o *Orchestrator) Process(ctx context.Context, chunks []types.Chunk, ct types.ContentType, format types.SummaryFormat, onProgress ProgressFunc) (Outcome, error) {
	out := Outcome{Total: len(chunks)}
	if onProgress == nil {
		onProgress = func(int, string) {}
	}

	var lastErr error
	for i, ch := range chunks {
		if i > 0 && o.cfg.InterChunkDelay > 0 {
			if err := retry.Sleep(ctx, o.cfg.InterChunkDelay); err != nil {
				return out, err
			}
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		onProgress(i+1, fmt.Sprintf("Processing chunk %d/%d", i+1, len(chunks)))
		res, err := o.processChunk(ctx, ch, ct, format, onProgress)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, ctxErr
			}
			lastErr = err
			out.Skipped = append(out.Skipped, ch.Index)
			o.logger.Warn("skipping chunk", zap.Int("chunk", ch.Index), zap.Error(err))
			onProgress(i+1, fmt.Sprintf("Skipped chunk %d/%d: %v", i+1, len(chunks), err))
			continue
		}
		out.Results = append(out.Results, res)
		onProgress(i+1, fmt.Sprintf("Chunk %d/%d produced %d items", i+1, len(chunks), len(res.Items)))
	}

	if len(out.Results) == 0 {
		if lastErr == nil {
			return out, types.ErrNoContentGenerated
		}
		return out, fmt.Errorf("%w: all %d chunks failed, last error: %v", types.ErrNoContentGenerated, len(chunks), lastErr)
	}
	return out, nil
}

func (o *Orchestrator) processChunk(ctx context.Context, ch types.Chunk, ct types.ContentType, format types.SummaryFormat, onProgress ProgressFunc) (ChunkResult, error) {
	res := ChunkResult{Chunk: ch}
	degradable := o.degradable(ct)

	err := retry.Do(ctx, o.cfg.Retry, func(ctx context.Context, attempt int, last bool) error {
		res.Attempts = attempt
		content := ch.Text
		res.Degraded = degradable && last && attempt > 1
		if res.Degraded {
			content = firstLines(ch.Text, o.cfg.DegradedLines)
			onProgress(ch.Index+1, fmt.Sprintf("Retrying chunk %d/%d with its first %d lines", ch.Index+1, ch.TotalChunks, o.cfg.DegradedLines))
		}

		req := Request{
			Content: content,
			Type:    ct,
			Format:  format,
			Metadata: RequestMetadata{
				ChunkIndex:      ch.Index,
				TotalChunks:     ch.TotalChunks,
				PreviousContext: ch.PreviousContext,
			},
			Timestamp: o.now().UnixMilli(),
		}

		items, err := o.attempt(ctx, req)
		if err != nil {
			o.logger.Debug("attempt failed",
				zap.Int("chunk", ch.Index),
				zap.Int("attempt", attempt),
				zap.Bool("degraded", res.Degraded),
				zap.Error(err))
			onProgress(ch.Index+1, fmt.Sprintf("Chunk %d/%d attempt %d/%d failed: %v", ch.Index+1, ch.TotalChunks, attempt, o.cfg.Retry.Attempts(), err))
			return err
		}
		res.Items = items
		return nil
	})
	if err != nil {
		return ChunkResult{}, err
	}
	return res, nil
}

// attempt makes one timed call and decodes its items. The backend runs in its
// own goroutine so a backend that ignores cancellation still loses the race
// against the timer.
func (o *Orchestrator) attempt(ctx context.Context, req Request) ([]json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancel()

	type result struct {
		resp Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := o.backend.Generate(ctx, req)
		done <- result{resp, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("request timed out after %s", o.cfg.RequestTimeout)
		}
		return nil, ctx.Err()
	}

	if r.err != nil {
		return nil, r.err
	}
	if !r.resp.Success {
		msg := r.resp.Error
		if msg == "" {
			msg = "unspecified error"
		}
		return nil, fmt.Errorf("generation failed: %s", msg)
	}
	return DecodeItems(req.Type, r.resp.Data)
}

func (o *Orchestrator) degradable(ct types.ContentType) bool {
	if o.cfg.DegradedLines <= 0 || o.cfg.Retry.MaxRetries < 1 {
		return false
	}
	return slices.Contains(o.cfg.DegradedTypes, ct)
}

func firstLines(text string, n int) string {
	lines := strings.SplitN(text, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
