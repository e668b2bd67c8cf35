// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/pkg/types"
)

const defaultOllamaHost = "http://localhost:11434"

// OllamaBackend calls a local Ollama server's /api/generate endpoint with
// streaming disabled.
type OllamaBackend struct {
	Host   string
	Model  string
	Client *http.Client
}

// NewOllama builds a backend from cfg; BaseURL is the Ollama host.
func NewOllama(cfg types.AIConfig) *OllamaBackend {
	return &OllamaBackend{
		Host:   firstNonEmpty(cfg.BaseURL, defaultOllamaHost),
		Model:  cfg.Model,
		Client: &http.Client{Timeout: 10 * time.Minute},
	}
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Generate posts the rendered prompt and returns the trimmed response.
func (o *OllamaBackend) Generate(ctx context.Context, req Request) (string, error) {
	body := ollamaRequest{
		Model:  firstNonEmpty(req.Options.Model, o.Model),
		Prompt: req.Prompt(),
		System: req.System,
	}
	if req.Options.Temperature != 0 || req.Options.MaxTokens > 0 {
		body.Options = map[string]any{}
		if req.Options.Temperature != 0 {
			body.Options["temperature"] = req.Options.Temperature
		}
		if req.Options.MaxTokens > 0 {
			body.Options["num_predict"] = req.Options.MaxTokens
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}
	url := strings.TrimRight(o.Host, "/") + "/api/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling ollama: %w", err)
	}
	raw, err := httputil.ReadBody(resp, 16<<20)
	if err != nil {
		return "", fmt.Errorf("reading ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("ollama unexpected response: %s", string(raw))
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama: %s", parsed.Error)
	}
	return strings.TrimSpace(parsed.Response), nil
}
