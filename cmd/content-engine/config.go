// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/content-engine/internal/competitor"
	"github.com/pdiddy/content-engine/internal/generate"
	"github.com/pdiddy/content-engine/internal/logging"
	"github.com/pdiddy/content-engine/internal/pipeline"
	"github.com/pdiddy/content-engine/internal/secrets"
	"github.com/pdiddy/content-engine/internal/validate"
	"github.com/pdiddy/content-engine/pkg/types"
)

// envKeyReplacer maps "generation.model" to CONTENT_ENGINE_GENERATION_MODEL.
var envKeyReplacer = strings.NewReplacer(".", "_")

// appConfig is everything a command needs, read from viper.
type appConfig struct {
	Pipeline   types.PipelineConfig
	Log        logging.Config
	ServerAddr string
}

func setDefaults(v *viper.Viper) {
	rules := validate.DefaultRules()

	v.SetDefault("generation.provider", "openai")
	v.SetDefault("generation.model", "gpt-4.1-mini")
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.max_tokens", 8000)
	v.SetDefault("generation.max_retries", 3)
	v.SetDefault("generation.timeout", 5*time.Minute)
	v.SetDefault("generation.outline.max_tokens", 2000)

	v.SetDefault("competitor.source", string(types.SourceSimulated))
	v.SetDefault("competitor.count", 5)
	v.SetDefault("competitor.max_results", 15)
	v.SetDefault("competitor.timeout", 30*time.Second)
	v.SetDefault("competitor.delay", time.Second)
	v.SetDefault("competitor.insights", false)

	v.SetDefault("rules.min_words", rules.MinWords)
	v.SetDefault("rules.meta_min_chars", rules.MetaMinChars)
	v.SetDefault("rules.meta_max_chars", rules.MetaMaxChars)
	v.SetDefault("rules.density_min", rules.DensityMin)
	v.SetDefault("rules.density_max", rules.DensityMax)
	v.SetDefault("rules.min_sections", rules.MinSections)
	v.SetDefault("rules.max_sections", rules.MaxSections)
	v.SetDefault("rules.faq_questions", rules.FAQQuestions)

	v.SetDefault("pipeline.failure_policy", string(types.PolicyPropagate))

	v.SetDefault("export.dir", "exports")
	v.SetDefault("export.formats", []string{string(types.ExportSpreadsheet), string(types.ExportHTML), string(types.ExportMarkdown)})
	v.SetDefault("export.log_file", "articles_log.xlsx")

	v.SetDefault("wordpress.timeout", 30*time.Second)

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatText)
}

// loadConfig reads v into typed configuration and back-fills credentials
// from store. Explicit configuration wins over the secrets directory.
func loadConfig(v *viper.Viper, store secrets.Store) (appConfig, error) {
	var cfg appConfig
	p := &cfg.Pipeline

	p.Generation.AIConfig = types.AIConfig{
		Provider:    v.GetString("generation.provider"),
		Model:       v.GetString("generation.model"),
		APIKey:      v.GetString("generation.api_key"),
		BaseURL:     v.GetString("generation.base_url"),
		Temperature: v.GetFloat64("generation.temperature"),
		MaxTokens:   v.GetInt("generation.max_tokens"),
		MaxRetries:  v.GetInt("generation.max_retries"),
		Timeout:     v.GetDuration("generation.timeout"),
	}
	p.Generation.Outline = stageSettings(v, "generation.outline")
	p.Generation.Article = stageSettings(v, "generation.article")
	if key := secrets.ProviderKey(p.Generation.Provider); key != "" {
		p.Generation.APIKey = store.Default(key, p.Generation.APIKey)
	}

	p.Competitor = types.CompetitorConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   v.GetDuration("competitor.timeout"),
			UserAgent: v.GetString("competitor.user_agent"),
		},
		Source:     types.CompetitorSourceKind(v.GetString("competitor.source")),
		Count:      v.GetInt("competitor.count"),
		Fixture:    v.GetString("competitor.fixture"),
		URLs:       v.GetStringSlice("competitor.urls"),
		FeedURL:    v.GetString("competitor.feed_url"),
		MaxResults: v.GetInt("competitor.max_results"),
		Delay:      v.GetDuration("competitor.delay"),
		Insights:   v.GetBool("competitor.insights"),
	}

	p.Rules = types.RulesConfig{
		MinWords:     v.GetInt("rules.min_words"),
		MetaMinChars: v.GetInt("rules.meta_min_chars"),
		MetaMaxChars: v.GetInt("rules.meta_max_chars"),
		DensityMin:   v.GetFloat64("rules.density_min"),
		DensityMax:   v.GetFloat64("rules.density_max"),
		MinSections:  v.GetInt("rules.min_sections"),
		MaxSections:  v.GetInt("rules.max_sections"),
		FAQQuestions: v.GetInt("rules.faq_questions"),
	}

	p.FailurePolicy = types.FailurePolicy(v.GetString("pipeline.failure_policy"))
	switch p.FailurePolicy {
	case types.PolicyPropagate, types.PolicyDegrade:
	default:
		return appConfig{}, fmt.Errorf("pipeline.failure_policy: unknown policy %q (want propagate or degrade)", p.FailurePolicy)
	}

	p.Export = types.ExportConfig{
		Dir:     v.GetString("export.dir"),
		LogFile: v.GetString("export.log_file"),
	}
	for _, f := range v.GetStringSlice("export.formats") {
		format := types.ExportFormat(strings.TrimSpace(f))
		switch format {
		case types.ExportSpreadsheet, types.ExportDocument, types.ExportHTML, types.ExportMarkdown:
			p.Export.Formats = append(p.Export.Formats, format)
		default:
			return appConfig{}, fmt.Errorf("export.formats: unknown format %q", f)
		}
	}

	p.WordPress = types.WordPressConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   v.GetDuration("wordpress.timeout"),
			UserAgent: v.GetString("wordpress.user_agent"),
		},
		URL:         v.GetString("wordpress.url"),
		Username:    v.GetString("wordpress.username"),
		AppPassword: store.Default(secrets.WordPressPassword, v.GetString("wordpress.app_password")),
	}

	cfg.Log = logging.Config{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.ServerAddr = v.GetString("server.addr")
	return cfg, nil
}

func stageSettings(v *viper.Viper, prefix string) types.StageSettings {
	return types.StageSettings{
		Model:       v.GetString(prefix + ".model"),
		Temperature: v.GetFloat64(prefix + ".temperature"),
		MaxTokens:   v.GetInt(prefix + ".max_tokens"),
	}
}

// setup loads configuration, the logger, and a wired orchestrator.
// Progress lines from every stage go to progress.
func setup(progress io.Writer) (appConfig, *slog.Logger, *pipeline.Orchestrator, error) {
	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return appConfig{}, nil, nil, err
	}
	logger, err := logging.New(os.Stderr, cfg.Log)
	if err != nil {
		return appConfig{}, nil, nil, err
	}
	orch, err := buildOrchestrator(cfg.Pipeline, logger, progress)
	if err != nil {
		return appConfig{}, nil, nil, err
	}
	return cfg, logger, orch, nil
}

func buildOrchestrator(cfg types.PipelineConfig, logger *slog.Logger, progress io.Writer) (*pipeline.Orchestrator, error) {
	src, err := competitor.NewSource(cfg.Competitor, progress)
	if err != nil {
		return nil, err
	}
	backend, err := generate.New(cfg.Generation.AIConfig)
	if err != nil {
		return nil, err
	}
	client := generate.NewClient(backend, cfg.Generation.MaxRetries, progress)
	return pipeline.New(cfg, src, client, logger, progress), nil
}
