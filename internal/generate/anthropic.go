// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/pkg/types"
)

// anthropicAPIURL is the Messages API endpoint. Package-level var for test
// substitution.
var anthropicAPIURL = "https://api.anthropic.com/v1/messages"

const (
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 8192
)

// AnthropicBackend calls the Anthropic Messages API over net/http.
type AnthropicBackend struct {
	APIKey string
	Model  string
	URL    string
	Client *http.Client
}

// NewAnthropic builds a backend from cfg. BaseURL, when set, replaces the
// full endpoint URL.
func NewAnthropic(cfg types.AIConfig) (*AnthropicBackend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic api key missing; set generation.api_key or .secrets/anthropic-api-key")
	}
	return &AnthropicBackend{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		URL:    cfg.BaseURL,
		Client: &http.Client{Timeout: 10 * time.Minute},
	}, nil
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Generate sends one user turn and concatenates the returned text blocks.
func (a *AnthropicBackend) Generate(ctx context.Context, req Request) (string, error) {
	body := anthropicRequest{
		Model:     firstNonEmpty(req.Options.Model, a.Model),
		MaxTokens: req.Options.MaxTokens,
		System:    req.System,
		Messages:  []anthropicMessage{{Role: "user", Content: req.Prompt()}},
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = anthropicMaxTokens
	}
	if t := req.Options.Temperature; t != 0 {
		body.Temperature = &t
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := firstNonEmpty(a.URL, anthropicAPIURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling Anthropic API: %w", err)
	}
	raw, err := httputil.ReadBody(resp, 16<<20)
	if err != nil {
		return "", fmt.Errorf("reading Anthropic response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Anthropic API returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decoding Anthropic response: %w", err)
	}
	var out strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", errors.New("no text content in Anthropic response")
	}
	return out.String(), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
