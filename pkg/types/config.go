// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "content-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CompetitorSourceKind selects where competitor records come from.
type CompetitorSourceKind string

const (
	SourceSimulated CompetitorSourceKind = "simulated"
	SourceFixture   CompetitorSourceKind = "fixture"
	SourceWeb       CompetitorSourceKind = "web"
)

// CompetitorConfig holds settings for the analysis stage.
type CompetitorConfig struct {
	HTTPConfig `yaml:",inline"`

	// Source selects simulated, fixture, or web records.
	Source CompetitorSourceKind `json:"source" yaml:"source"`

	// Count is the number of simulated records (default 5).
	Count int `json:"count" yaml:"count"`

	// Fixture is the YAML file read by the fixture source.
	Fixture string `json:"fixture,omitempty" yaml:"fixture,omitempty"`

	// URLs is a static list of competitor pages for the web source.
	URLs []string `json:"urls,omitempty" yaml:"urls,omitempty"`

	// FeedURL is an RSS/Atom search feed template; "{keyword}" is replaced
	// with the query-escaped keyword. Empty disables discovery.
	FeedURL string `json:"feed_url,omitempty" yaml:"feed_url,omitempty"`

	// MaxResults caps the number of competitor pages fetched (default 15).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Delay is the pause between consecutive page fetches.
	Delay time.Duration `json:"delay" yaml:"delay"`

	// Insights asks the generation backend for a qualitative competitor
	// reading after aggregation. A failed reading is logged, not fatal.
	Insights bool `json:"insights" yaml:"insights"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the backend: openai, anthropic, ollama, or echo.
	Provider string `json:"provider" yaml:"provider"`

	// Model is the AI model identifier (e.g. "gpt-4.1-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways, Ollama host).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens bounds the response length.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout bounds a single stage's generation call, retries included.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// GenerationConfig holds the shared provider settings plus per-stage model
// settings for the outline and article stages.
type GenerationConfig struct {
	AIConfig `yaml:",inline"`

	Outline StageSettings `json:"outline" yaml:"outline"`
	Article StageSettings `json:"article" yaml:"article"`
}

// StageSettings overrides the shared model settings for one stage. Zero
// values fall back to the shared AIConfig.
type StageSettings struct {
	Model       string  `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// FailurePolicy decides what a composer does when the generation capability fails.
type FailurePolicy string

const (
	// PolicyPropagate returns a GenerationFailed error to the orchestrator.
	PolicyPropagate FailurePolicy = "propagate"

	// PolicyDegrade returns an artifact carrying a visible error marker.
	PolicyDegrade FailurePolicy = "degrade"
)

// RulesConfig holds the SEO constraints the validator checks.
type RulesConfig struct {
	MinWords     int     `json:"min_words" yaml:"min_words"`
	MetaMinChars int     `json:"meta_min_chars" yaml:"meta_min_chars"`
	MetaMaxChars int     `json:"meta_max_chars" yaml:"meta_max_chars"`
	DensityMin   float64 `json:"density_min" yaml:"density_min"`
	DensityMax   float64 `json:"density_max" yaml:"density_max"`
	MinSections  int     `json:"min_sections" yaml:"min_sections"`
	MaxSections  int     `json:"max_sections" yaml:"max_sections"`
	FAQQuestions int     `json:"faq_questions" yaml:"faq_questions"`
}

// ExportFormat names one export adapter.
type ExportFormat string

const (
	ExportSpreadsheet ExportFormat = "xlsx"
	ExportDocument    ExportFormat = "document"
	ExportHTML        ExportFormat = "html"
	ExportMarkdown    ExportFormat = "markdown"
)

// ExportConfig holds settings for the export adapters.
type ExportConfig struct {
	// Dir is the output directory (default "exports").
	Dir string `json:"dir" yaml:"dir"`

	// Formats lists the adapters run after generation.
	Formats []ExportFormat `json:"formats" yaml:"formats"`

	// LogFile is the spreadsheet run log name inside Dir (default "articles_log.xlsx").
	LogFile string `json:"log_file" yaml:"log_file"`
}

// WordPressConfig holds settings for the publishing adapter.
type WordPressConfig struct {
	HTTPConfig `yaml:",inline"`

	// URL is the site base URL; the REST route is appended.
	URL string `json:"url" yaml:"url"`

	// Username is the WordPress user owning the application password.
	Username string `json:"username" yaml:"username"`

	// AppPassword is the WordPress application password.
	AppPassword string `json:"app_password,omitempty" yaml:"app_password,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Competitor    CompetitorConfig `json:"competitor" yaml:"competitor"`
	Generation    GenerationConfig `json:"generation" yaml:"generation"`
	Rules         RulesConfig      `json:"rules" yaml:"rules"`
	FailurePolicy FailurePolicy    `json:"failure_policy" yaml:"failure_policy"`
	Export        ExportConfig     `json:"export" yaml:"export"`
	WordPress     WordPressConfig  `json:"wordpress" yaml:"wordpress"`
}
