// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/internal/pipeline"
	"github.com/pdiddy/content-engine/internal/secrets"
	"github.com/pdiddy/content-engine/internal/validate"
	"github.com/pdiddy/content-engine/pkg/types"
)

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CONTENT_ENGINE")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newViper(), secrets.Store{})
	require.NoError(t, err)

	p := cfg.Pipeline
	assert.Equal(t, "openai", p.Generation.Provider)
	assert.Equal(t, 3, p.Generation.MaxRetries)
	assert.Equal(t, 5*time.Minute, p.Generation.Timeout)
	assert.Equal(t, 2000, p.Generation.Outline.MaxTokens)
	assert.Equal(t, types.SourceSimulated, p.Competitor.Source)
	assert.Equal(t, 5, p.Competitor.Count)
	assert.Equal(t, validate.DefaultRules(), p.Rules)
	assert.Equal(t, types.PolicyPropagate, p.FailurePolicy)
	assert.Equal(t, []types.ExportFormat{types.ExportSpreadsheet, types.ExportHTML, types.ExportMarkdown}, p.Export.Formats)
	assert.Equal(t, "exports", p.Export.Dir)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CONTENT_ENGINE_GENERATION_MODEL", "gpt-x")
	t.Setenv("CONTENT_ENGINE_PIPELINE_FAILURE_POLICY", "degrade")
	t.Setenv("CONTENT_ENGINE_RULES_MIN_WORDS", "1800")

	cfg, err := loadConfig(newViper(), secrets.Store{})
	require.NoError(t, err)
	assert.Equal(t, "gpt-x", cfg.Pipeline.Generation.Model)
	assert.Equal(t, types.PolicyDegrade, cfg.Pipeline.FailurePolicy)
	assert.Equal(t, 1800, cfg.Pipeline.Rules.MinWords)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content-engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
generation:
  provider: ollama
  model: llama3
  article:
    model: llama3:70b
competitor:
  source: fixture
  fixture: competitors.yaml
export:
  formats: [document, markdown]
wordpress:
  url: https://blog.example.com
  username: editor
`), 0o644))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v, secrets.Store{secrets.WordPressPassword: "from-secrets"})
	require.NoError(t, err)
	p := cfg.Pipeline
	assert.Equal(t, "ollama", p.Generation.Provider)
	assert.Equal(t, "llama3:70b", p.Generation.Article.Model)
	assert.Equal(t, types.SourceFixture, p.Competitor.Source)
	assert.Equal(t, "competitors.yaml", p.Competitor.Fixture)
	assert.Equal(t, []types.ExportFormat{types.ExportDocument, types.ExportMarkdown}, p.Export.Formats)
	assert.Equal(t, "https://blog.example.com", p.WordPress.URL)
	assert.Equal(t, "from-secrets", p.WordPress.AppPassword)
}

func TestLoadConfig_SecretsBackfill(t *testing.T) {
	store := secrets.Store{secrets.OpenAIKey: "sk-secret", secrets.AnthropicKey: "ak-secret"}

	cfg, err := loadConfig(newViper(), store)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", cfg.Pipeline.Generation.APIKey)

	t.Setenv("CONTENT_ENGINE_GENERATION_API_KEY", "sk-explicit")
	cfg, err = loadConfig(newViper(), store)
	require.NoError(t, err)
	assert.Equal(t, "sk-explicit", cfg.Pipeline.Generation.APIKey)

	t.Setenv("CONTENT_ENGINE_GENERATION_API_KEY", "")
	t.Setenv("CONTENT_ENGINE_GENERATION_PROVIDER", "anthropic")
	cfg, err = loadConfig(newViper(), store)
	require.NoError(t, err)
	assert.Equal(t, "ak-secret", cfg.Pipeline.Generation.APIKey)
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		env, value, want string
	}{
		{"CONTENT_ENGINE_PIPELINE_FAILURE_POLICY", "ignore", "failure_policy"},
		{"CONTENT_ENGINE_EXPORT_FORMATS", "pdf", "export.formats"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := loadConfig(newViper(), secrets.Store{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildOrchestrator_Echo(t *testing.T) {
	t.Setenv("CONTENT_ENGINE_GENERATION_PROVIDER", "echo")
	t.Setenv("CONTENT_ENGINE_RULES_MIN_WORDS", "0")
	cfg, err := loadConfig(newViper(), secrets.Store{})
	require.NoError(t, err)

	var progress bytes.Buffer
	orch, err := buildOrchestrator(cfg.Pipeline, nil, &progress)
	require.NoError(t, err)

	sess, err := pipeline.NewSession(types.Brief{Language: "English"})
	require.NoError(t, err)
	require.NoError(t, orch.Run(t.Context(), sess, "solar panels"))
	assert.Equal(t, pipeline.StateGenerated, sess.State())
}

func TestBuildOrchestrator_UnknownProvider(t *testing.T) {
	t.Setenv("CONTENT_ENGINE_GENERATION_PROVIDER", "gemini")
	cfg, err := loadConfig(newViper(), secrets.Store{})
	require.NoError(t, err)
	_, err = buildOrchestrator(cfg.Pipeline, nil, nil)
	assert.Error(t, err)
}

func TestBriefFromFlags(t *testing.T) {
	anchors := filepath.Join(t.TempDir(), "anchors.txt")
	require.NoError(t, os.WriteFile(anchors, []byte("guide | https://a.example\nnot an anchor\n"), 0o644))

	cmd := &cobra.Command{Use: "test"}
	addBriefFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--related", "a, b,,c",
		"--anchors-file", anchors,
		"--anchor", "deals|https://b.example",
		"--domain", "shop.example",
	}))

	brief, err := briefFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, brief.RelatedKeywords)
	assert.Equal(t, []types.Anchor{
		{Text: "guide", URL: "https://a.example"},
		{Text: "deals", URL: "https://b.example"},
	}, brief.Anchors)
	assert.Equal(t, "shop.example", brief.TargetDomain)
	assert.Equal(t, "English", brief.Language)
}

func TestBriefFromFlags_BadAnchor(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addBriefFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--anchor", "text |"}))
	_, err := briefFromFlags(cmd)
	assert.Error(t, err)
}

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	in := &pipeline.Session{
		Keyword: "kw",
		Brief: types.Brief{
			RelatedKeywords: []string{"a"},
			Anchors:         []types.Anchor{{Text: "t", URL: "https://a.example"}},
			Language:        "Arabic",
		},
		Article: &types.Article{Title: "T", HTML: "<h1>T</h1>", WordCount: 1},
	}
	require.NoError(t, saveSession(path, in))
	out, err := loadSession(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriteStructured(t *testing.T) {
	s := &types.AnalysisSummary{Keyword: "kw", AvgLength: 10}
	var buf bytes.Buffer
	require.NoError(t, writeStructured(&buf, "yaml", s))
	assert.True(t, strings.Contains(buf.String(), "avg_length: 10"))

	buf.Reset()
	require.NoError(t, writeStructured(&buf, "json", s))
	assert.Contains(t, buf.String(), `"avg_length": 10`)

	assert.Error(t, writeStructured(&buf, "xml", s))
}
