// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/study-engine/internal/secrets"
	"github.com/pdiddy/study-engine/pkg/types"
)

// envKeyReplacer maps nested keys such as generation.endpoint to
// STUDY_ENGINE_GENERATION_ENDPOINT.
var envKeyReplacer = strings.NewReplacer(".", "_")

// setDefaults registers every config key with its default so file values,
// environment variables, and flags all resolve through viper.
func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()
	g := d.Generation

	v.SetDefault("generation.timeout", g.Timeout)
	v.SetDefault("generation.user_agent", g.UserAgent)
	v.SetDefault("generation.backend", string(g.Backend))
	v.SetDefault("generation.endpoint", g.Endpoint)
	v.SetDefault("generation.model", g.Model)
	v.SetDefault("generation.base_url", g.BaseURL)
	v.SetDefault("generation.api_key", g.APIKey)
	v.SetDefault("generation.inter_chunk_delay", g.InterChunkDelay)
	v.SetDefault("generation.degraded_lines", g.DegradedLines)
	v.SetDefault("generation.retry.max_retries", g.Retry.MaxRetries)
	v.SetDefault("generation.retry.base_delay", g.Retry.BaseDelay)
	v.SetDefault("generation.retry.max_delay", g.Retry.MaxDelay)

	v.SetDefault("chunking.max_input_length", d.Chunking.MaxInputLength)
	v.SetDefault("chunking.max_chunk_size", d.Chunking.MaxChunkSize)
	v.SetDefault("chunking.overlap_ratio", d.Chunking.OverlapRatio)
	v.SetDefault("chunking.context_cap", d.Chunking.ContextCap)
	v.SetDefault("chunking.max_topics", d.Chunking.MaxTopics)

	v.SetDefault("dedup.threshold", d.Dedup.Threshold)
	v.SetDefault("store.dir", d.Store.Dir)
}

// loadConfig resolves the effective configuration from defaults, the config
// file, and STUDY_ENGINE_* environment variables.
func loadConfig(v *viper.Viper) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	backend, err := types.ParseBackendKind(string(cfg.Generation.Backend))
	if err != nil {
		return types.Config{}, err
	}
	cfg.Generation.Backend = backend
	return cfg, nil
}

// apiKey returns the configured key for the selected backend, falling back
// to the matching .secrets/ file.
func apiKey(g types.GenerationConfig, s secrets.Set) string {
	if g.APIKey != "" {
		return g.APIKey
	}
	if g.Backend == types.BackendOpenAI {
		return s.First(secrets.OpenAIAPIKey)
	}
	return s.First(secrets.GenerationAPIKey)
}

// newLogger builds the diagnostics logger on stderr. Warnings and errors are
// always shown; verbose adds info and debug entries.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg.Level.SetLevel(zap.DebugLevel)
	}
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return l, nil
}
