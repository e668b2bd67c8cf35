// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes a finished article to disk: an appended spreadsheet
// run log, a structured document, a self-contained HTML page, and a
// Markdown conversion of the body.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/content-engine/internal/competitor"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Run statuses recorded in the spreadsheet log.
const (
	StatusGenerated = "generated"
	StatusDegraded  = "degraded"
	StatusPublished = "published"
	StatusFailed    = "publish_failed"
)

const (
	defaultDir     = "exports"
	defaultLogFile = "articles_log.xlsx"
)

// Record is one run-log row.
type Record struct {
	Keyword      string    `json:"keyword" yaml:"keyword"`
	Title        string    `json:"title" yaml:"title"`
	WordCount    int       `json:"word_count" yaml:"word_count"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
	Status       string    `json:"status" yaml:"status"`
	TargetDomain string    `json:"target_domain" yaml:"target_domain"`
	Language     string    `json:"language" yaml:"language"`
	Link         string    `json:"link,omitempty" yaml:"link,omitempty"`
}

// NewRecord builds the log row for article.
func NewRecord(keyword string, a *types.Article, brief types.Brief, now time.Time) Record {
	status := StatusGenerated
	if a.Degraded {
		status = StatusDegraded
	}
	return Record{
		Keyword:      keyword,
		Title:        a.Title,
		WordCount:    a.WordCount,
		Timestamp:    now,
		Status:       status,
		TargetDomain: brief.TargetDomain,
		Language:     brief.Language,
	}
}

// Job is one article to export.
type Job struct {
	Keyword string
	Article *types.Article
	Brief   types.Brief
	Now     time.Time
}

// baseName is "{slug}_{YYYYMMDD_HHMMSS}".
func (j Job) baseName() string {
	slug := competitor.Slug(j.Keyword)
	if slug == "" {
		slug = "article"
	}
	return fmt.Sprintf("%s_%s", slug, j.Now.Format("20060102_150405"))
}

// Summary lists the files an export run wrote and the formats that failed.
type Summary struct {
	Written []string
	Failed  int
}

// HasFailures reports whether any format failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Run writes job in every configured format under cfg.Dir. A failing format
// is reported on w and counted; the remaining formats still run.
func Run(cfg types.ExportConfig, job Job, w io.Writer) (Summary, error) {
	if w == nil {
		w = io.Discard
	}
	dir := cfg.Dir
	if dir == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating export directory: %w", err)
	}
	if job.Now.IsZero() {
		job.Now = time.Now()
	}
	base := filepath.Join(dir, job.baseName())

	var sum Summary
	for _, f := range cfg.Formats {
		var path string
		var err error
		switch f {
		case types.ExportSpreadsheet:
			path = filepath.Join(dir, logFile(cfg))
			err = AppendLog(path, NewRecord(job.Keyword, job.Article, job.Brief, job.Now))
		case types.ExportDocument:
			path = base + ".doc.md"
			err = WriteDocument(path, job.Article)
		case types.ExportHTML:
			path = base + ".html"
			err = WriteHTML(path, job)
		case types.ExportMarkdown:
			path = base + ".md"
			err = WriteMarkdown(path, job.Article)
		default:
			err = fmt.Errorf("unknown format")
		}
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", f, err)
			sum.Failed++
			continue
		}
		fmt.Fprintf(w, "wrote   %s\n", path)
		sum.Written = append(sum.Written, path)
	}
	return sum, nil
}

// LogPath returns the spreadsheet log location for cfg.
func LogPath(cfg types.ExportConfig) string {
	dir := cfg.Dir
	if dir == "" {
		dir = defaultDir
	}
	return filepath.Join(dir, logFile(cfg))
}

func logFile(cfg types.ExportConfig) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	return defaultLogFile
}
