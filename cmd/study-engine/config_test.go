// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/study-engine/internal/generate"
	"github.com/pdiddy/study-engine/internal/secrets"
	"github.com/pdiddy/study-engine/internal/store"
	"github.com/pdiddy/study-engine/pkg/types"
)

func newTestViper(t *testing.T, yamlDoc string) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("STUDY_ENGINE")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	if yamlDoc != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(yamlDoc)))
	}
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), cfg)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	t.Setenv("STUDY_ENGINE_GENERATION_ENDPOINT", "https://gen.example.test/v1")
	t.Setenv("STUDY_ENGINE_DEDUP_THRESHOLD", "0.9")

	cfg, err := loadConfig(newTestViper(t, `
generation:
  backend: OpenAI
  timeout: 45s
  retry:
    max_retries: 5
chunking:
  max_chunk_size: 2500
store:
  dir: /tmp/study
`))
	require.NoError(t, err)
	assert.Equal(t, types.BackendOpenAI, cfg.Generation.Backend)
	assert.Equal(t, 45*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, 5, cfg.Generation.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Generation.Retry.BaseDelay, "unset keys keep defaults")
	assert.Equal(t, 2500, cfg.Chunking.MaxChunkSize)
	assert.Equal(t, "https://gen.example.test/v1", cfg.Generation.Endpoint)
	assert.Equal(t, 0.9, cfg.Dedup.Threshold)
	assert.Equal(t, "/tmp/study", cfg.Store.Dir)
}

func TestLoadConfig_BadBackend(t *testing.T) {
	_, err := loadConfig(newTestViper(t, "generation:\n  backend: carrier-pigeon\n"))
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestAPIKey(t *testing.T) {
	s := secrets.Set{secrets.GenerationAPIKey: "gk", secrets.OpenAIAPIKey: "sk"}

	assert.Equal(t, "gk", apiKey(types.GenerationConfig{Backend: types.BackendEndpoint}, s))
	assert.Equal(t, "sk", apiKey(types.GenerationConfig{Backend: types.BackendOpenAI}, s))
	assert.Equal(t, "cfg", apiKey(types.GenerationConfig{Backend: types.BackendOpenAI, APIKey: "cfg"}, s))
	assert.Empty(t, apiKey(types.GenerationConfig{Backend: types.BackendEndpoint}, nil))
}

func TestNewBackend(t *testing.T) {
	loadedSecrets = secrets.Set{secrets.OpenAIAPIKey: "sk-test"}
	t.Cleanup(func() { loadedSecrets = nil })

	g := types.DefaultConfig().Generation
	g.Endpoint = "https://gen.example.test"
	be, err := newBackend(g)
	require.NoError(t, err)
	assert.IsType(t, &generate.EndpointBackend{}, be)

	g.Backend = types.BackendOpenAI
	be, err = newBackend(g)
	require.NoError(t, err)
	assert.IsType(t, &generate.OpenAIBackend{}, be)

	g.Backend = types.BackendEndpoint
	g.Endpoint = ""
	_, err = newBackend(g)
	assert.Error(t, err)
}

func TestReadInput(t *testing.T) {
	got, err := readInput("-", strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	_, err = readInput("/nonexistent/input.md", nil)
	assert.ErrorContains(t, err, "reading input")
}

func TestWriteArtifact(t *testing.T) {
	art := &types.Artifact{
		Type:    types.ContentSummary,
		Summary: &types.Summary{Text: "Keep logs in ink."},
	}

	var buf bytes.Buffer
	require.NoError(t, writeArtifact(&buf, &store.Record{Type: art.Type, Artifact: art}, store.FormatJSON))
	var decoded types.Artifact
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "Keep logs in ink.", decoded.Summary.Text)

	buf.Reset()
	require.NoError(t, writeArtifact(&buf, &store.Record{Type: art.Type, Artifact: art}, store.FormatYAML))
	assert.Contains(t, buf.String(), "text: Keep logs in ink.")

	buf.Reset()
	require.NoError(t, writeArtifact(&buf, &store.Record{Type: art.Type, Artifact: art}, store.FormatMarkdown))
	assert.Equal(t, "# summary\n\nKeep logs in ink.\n", buf.String())
}

func TestNewLogger(t *testing.T) {
	quiet, err := newLogger(false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zap.InfoLevel))
	assert.True(t, quiet.Core().Enabled(zap.WarnLevel))

	verbose, err := newLogger(true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zap.DebugLevel))
}
