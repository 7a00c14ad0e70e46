package types

import (
	"fmt"
	"strings"
	"time"
)

// HTTPConfig holds shared HTTP settings used by backends that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single generation request. A request that runs longer
	// is aborted and counts as a failed attempt (default 90s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "study-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RetryConfig holds the bounded exponential backoff applied to each chunk.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// BaseDelay is the delay before the first retry; it doubles per attempt (default 1s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`

	// MaxDelay caps the backoff delay (default 30s).
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`
}

// BackendKind selects the generation backend.
type BackendKind string

const (
	BackendEndpoint BackendKind = "endpoint"
	BackendOpenAI   BackendKind = "openai"
)

// ParseBackendKind validates a backend name.
func ParseBackendKind(s string) (BackendKind, error) {
	switch b := BackendKind(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendEndpoint, BackendOpenAI:
		return b, nil
	}
	return "", fmt.Errorf("unsupported backend %q: use endpoint or openai", s)
}

// GenerationConfig holds settings for the request orchestrator and its backend.
type GenerationConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backend selects the generation backend: endpoint or openai.
	Backend BackendKind `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Endpoint is the URL of the generation endpoint (endpoint backend).
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// Model is the model identifier (openai backend).
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL overrides the OpenAI-compatible API base URL (openai backend).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey authenticates against the selected backend.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// InterChunkDelay is the pause inserted before every chunk after the first (default 2s).
	InterChunkDelay time.Duration `json:"inter_chunk_delay" yaml:"inter_chunk_delay" mapstructure:"inter_chunk_delay"`

	// DegradedLines is how many leading lines of a chunk the final degraded
	// attempt resends (default 10).
	DegradedLines int `json:"degraded_lines" yaml:"degraded_lines" mapstructure:"degraded_lines"`

	// Retry configures per-chunk backoff.
	Retry RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

// ChunkingConfig holds settings for the preprocessor and chunker.
type ChunkingConfig struct {
	// MaxInputLength truncates preprocessed input, in characters (default 100000).
	MaxInputLength int `json:"max_input_length" yaml:"max_input_length" mapstructure:"max_input_length"`

	// MaxChunkSize is the target upper bound of a chunk, in characters (default 4000).
	MaxChunkSize int `json:"max_chunk_size" yaml:"max_chunk_size" mapstructure:"max_chunk_size"`

	// OverlapRatio is the share of MaxChunkSize carried from a chunk's tail
	// into the next chunk's context (default 0.3).
	OverlapRatio float64 `json:"overlap_ratio" yaml:"overlap_ratio" mapstructure:"overlap_ratio"`

	// ContextCap bounds the extracted context summary, in characters (default 300).
	ContextCap int `json:"context_cap" yaml:"context_cap" mapstructure:"context_cap"`

	// MaxTopics is the number of topic tags per chunk (default 3).
	MaxTopics int `json:"max_topics" yaml:"max_topics" mapstructure:"max_topics"`
}

// DedupConfig holds settings for near-duplicate removal.
type DedupConfig struct {
	// Threshold is the similarity above which two items are duplicates (default 0.75).
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
}

// StoreConfig holds settings for the local artifact store.
type StoreConfig struct {
	// Dir is the directory containing study.db (default "artifacts").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// Config groups all settings for the CLI.
type Config struct {
	Generation GenerationConfig `json:"generation" yaml:"generation" mapstructure:"generation"`
	Chunking   ChunkingConfig   `json:"chunking" yaml:"chunking" mapstructure:"chunking"`
	Dedup      DedupConfig      `json:"dedup" yaml:"dedup" mapstructure:"dedup"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
}

// DefaultConfig returns the configuration used when no file or flag overrides a value.
func DefaultConfig() Config {
	return Config{
		Generation: GenerationConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   90 * time.Second,
				UserAgent: "study-engine/0.1",
			},
			Backend:         BackendEndpoint,
			Model:           "gpt-4.1-mini",
			InterChunkDelay: 2 * time.Second,
			DegradedLines:   10,
			Retry: RetryConfig{
				MaxRetries: 3,
				BaseDelay:  time.Second,
				MaxDelay:   30 * time.Second,
			},
		},
		Chunking: ChunkingConfig{
			MaxInputLength: 100000,
			MaxChunkSize:   4000,
			OverlapRatio:   0.3,
			ContextCap:     300,
			MaxTopics:      3,
		},
		Dedup: DedupConfig{Threshold: 0.75},
		Store: StoreConfig{Dir: "artifacts"},
	}
}
