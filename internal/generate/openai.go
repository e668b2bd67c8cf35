// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/content-engine/pkg/types"
)

// OpenAIBackend calls the chat completions API through openai-go. BaseURL
// may point at any OpenAI-compatible gateway.
type OpenAIBackend struct {
	client openai.Client
	model  string
}

// NewOpenAI builds a backend from cfg. The SDK's own retries are disabled;
// Client owns the retry policy.
func NewOpenAI(cfg types.AIConfig, extra ...option.RequestOption) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; set generation.api_key or .secrets/openai-api-key")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)
	return &OpenAIBackend{client: openai.NewClient(opts...), model: cfg.Model}, nil
}

// Generate sends the system message and the rendered prompt as one turn.
func (o *OpenAIBackend) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Options.Model
	if model == "" {
		model = o.model
	}
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt()),
		},
	}
	if req.Options.Temperature != 0 {
		params.Temperature = openai.Float(req.Options.Temperature)
	}
	if req.Options.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.Options.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
