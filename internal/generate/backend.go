// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate sends chunks to a generation backend one at a time and
// collects the raw items each chunk yields. A chunk that keeps failing is
// skipped; the run fails only when no chunk produced anything.
package generate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/study-engine/internal/httputil"
	"github.com/pdiddy/study-engine/pkg/types"
)

// Backend abstracts the generation service so tests can supply a fake.
// An implementation makes exactly one attempt per call; retries belong to
// the Orchestrator.
type Backend interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is the payload sent for one chunk.
type Request struct {
	Content   string              `json:"content"`
	Type      types.ContentType   `json:"type"`
	Format    types.SummaryFormat `json:"format,omitempty"`
	Metadata  RequestMetadata     `json:"metadata"`
	Timestamp int64               `json:"timestamp"`
}

// RequestMetadata locates the chunk within the document.
type RequestMetadata struct {
	ChunkIndex      int    `json:"chunkIndex"`
	TotalChunks     int    `json:"totalChunks"`
	PreviousContext string `json:"previousContext,omitempty"`
}

// Response is the backend's reply. Data holds either an item array, an
// object wrapping one, or a summary shape, depending on the request type.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// EndpointBackend posts requests to an HTTP generation endpoint.
type EndpointBackend struct {
	URL       string
	APIKey    string
	UserAgent string
	Client    httputil.Doer
}

// NewEndpointBackend builds an EndpointBackend from configuration.
func NewEndpointBackend(cfg types.GenerationConfig, client httputil.Doer) (*EndpointBackend, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("generation endpoint is not configured")
	}
	return &EndpointBackend{
		URL:       cfg.Endpoint,
		APIKey:    cfg.APIKey,
		UserAgent: cfg.UserAgent,
		Client:    client,
	}, nil
}

// Generate posts one request and decodes the response envelope. Non-2xx
// statuses surface as *httputil.StatusError.
func (b *EndpointBackend) Generate(ctx context.Context, req Request) (Response, error) {
	headers := map[string]string{
		"User-Agent": b.UserAgent,
		"apikey":     b.APIKey,
	}
	if b.APIKey != "" {
		headers["Authorization"] = "Bearer " + b.APIKey
	}

	var resp Response
	if err := httputil.PostJSON(ctx, b.Client, b.URL, headers, req, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}
