// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/study-engine/pkg/types"
)

const systemPrompt = `You write study material for Navy advancement exam preparation. Use only facts stated in the material you are given. Respond with JSON only, without commentary or code fences.`

// promptTmpl renders the user message for one chunk. The output shape it asks
// for is what DecodeItems and the validators accept.
var promptTmpl = template.Must(template.New("generate").Parse(`{{if .PreviousContext}}Previous Context:
{{.PreviousContext}}

{{end}}{{if eq .Type "quiz"}}Write multiple-choice questions covering the study material below.
Respond with a JSON array. Each element has:
- "question": the question text
- "options": exactly 4 distinct answer choices
- "correctAnswer": the correct choice, copied exactly from options
- "explanation": one or two sentences on why the answer is correct
- "topic": a short topic label
{{else if eq .Type "flashcards"}}Write flashcards covering the study material below.
Respond with a JSON array. Each element has:
- "front": the prompt side
- "back": the answer side
- "type": "basic", or "cloze" when front contains a {{"{{"}}c1::...{{"}}"}} deletion
- "topic": a short topic label
- "difficulty": "easy", "medium" or "hard"
{{else}}Summarize the study material below{{if eq .Format "bullet"}} as a bulleted list{{else if eq .Format "tldr"}} in two or three sentences{{else if eq .Format "qa"}} as short question and answer pairs{{end}}.
Respond with a JSON object of the form {"summary": "..."}.
{{end}}
This is part {{.Part}} of {{.TotalChunks}}.

Study material:
{{.Content}}
`))

type promptData struct {
	Type            types.ContentType
	Format          types.SummaryFormat
	Content         string
	PreviousContext string
	Part            int
	TotalChunks     int
}

func renderPrompt(req Request) (string, error) {
	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, promptData{
		Type:            req.Type,
		Format:          req.Format,
		Content:         req.Content,
		PreviousContext: req.Metadata.PreviousContext,
		Part:            req.Metadata.ChunkIndex + 1,
		TotalChunks:     req.Metadata.TotalChunks,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// OpenAIBackend generates content through an OpenAI-compatible chat
// completions API. It wraps the model's reply in a successful Response.
type OpenAIBackend struct {
	Model string
	Opts  []option.RequestOption
}

// NewOpenAIBackend builds an OpenAIBackend from configuration. The SDK's own
// retries are disabled; the Orchestrator owns retrying.
func NewOpenAIBackend(cfg types.GenerationConfig, extra ...option.RequestOption) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; set generation.api_key or .secrets/openai-api-key")
	}
	if cfg.Model == "" {
		return nil, errors.New("generation model is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, option.WithHeader("User-Agent", cfg.UserAgent))
	}
	opts = append(opts, extra...)
	return &OpenAIBackend{Model: cfg.Model, Opts: opts}, nil
}

// Generate sends one chat completion for req.
func (o *OpenAIBackend) Generate(ctx context.Context, req Request) (Response, error) {
	prompt, err := renderPrompt(req)
	if err != nil {
		return Response{}, fmt.Errorf("rendering prompt: %w", err)
	}

	client := openai.NewClient(o.Opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return Response{}, err
	}
	if len(resp.Choices) == 0 {
		return Response{}, errors.New("openai: empty choices")
	}

	text := CleanJSON(resp.Choices[0].Message.Content)
	if text == "" {
		return Response{Success: false, Error: "model returned an empty reply"}, nil
	}
	if !json.Valid([]byte(text)) {
		if req.Type != types.ContentSummary {
			return Response{Success: false, Error: "model reply is not valid JSON"}, nil
		}
		// Plain prose is an acceptable summary.
		quoted, err := json.Marshal(text)
		if err != nil {
			return Response{}, err
		}
		text = string(quoted)
	}
	return Response{Success: true, Data: json.RawMessage(text)}, nil
}
