// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate defines the text-generation contract the composers depend
// on, a structured request builder, a retrying client, and provider backends
// for OpenAI, Anthropic, Ollama, and an offline echo backend.
//
// Composers never talk to a provider directly: they build a Request, hand it
// to a Backend, and treat every failure as types.ErrGenerationFailed.
package generate

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Options are the per-call model settings.
type Options struct {
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
}

// StageOptions overlays a stage's overrides on the shared settings.
func StageOptions(cfg types.AIConfig, stage types.StageSettings) Options {
	opts := Options{Model: cfg.Model, Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}
	if stage.Model != "" {
		opts.Model = stage.Model
	}
	if stage.Temperature != 0 {
		opts.Temperature = stage.Temperature
	}
	if stage.MaxTokens != 0 {
		opts.MaxTokens = stage.MaxTokens
	}
	return opts
}

// Request is a provider-agnostic generation request. System sets the
// model's role; Instructions state the task; Constraints are the hard rules
// the output must satisfy; Context carries material the model draws on.
type Request struct {
	System       string   `json:"system" yaml:"system"`
	Instructions string   `json:"instructions" yaml:"instructions"`
	Constraints  []string `json:"constraints" yaml:"constraints"`
	Context      string   `json:"context,omitempty" yaml:"context,omitempty"`
	Options      Options  `json:"options" yaml:"options"`
}

var promptTmpl = template.Must(template.New("prompt").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`{{.Instructions}}
{{- if .Constraints}}

Requirements:
{{- range $i, $c := .Constraints}}
{{inc $i}}. {{$c}}
{{- end}}
{{- end}}
{{- if .Context}}

Context:
{{.Context}}
{{- end}}
`))

// Prompt renders the user-facing part of the request: instructions, a
// numbered constraint list, then the context block.
func (r Request) Prompt() string {
	var buf bytes.Buffer
	// The template only reads string fields, so Execute cannot fail.
	_ = promptTmpl.Execute(&buf, r)
	return strings.TrimSpace(buf.String())
}

// Backend is the generation capability: one request in, text out.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f BackendFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// New returns the backend named by cfg.Provider.
func New(cfg types.AIConfig) (Backend, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg)
	case "anthropic":
		return NewAnthropic(cfg)
	case "ollama":
		return NewOllama(cfg), nil
	case "echo", "":
		return Echo{}, nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q (want openai, anthropic, ollama, or echo)", cfg.Provider)
	}
}
