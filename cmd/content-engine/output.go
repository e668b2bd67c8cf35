// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/content-engine/internal/pipeline"
	"github.com/pdiddy/content-engine/internal/validate"
	"github.com/pdiddy/content-engine/pkg/types"
)

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (want table, json, or yaml)", format)
	}
}

func printSummary(w io.Writer, s *types.AnalysisSummary) {
	fmt.Fprintf(w, "Keyword:            %s\n", s.Keyword)
	fmt.Fprintf(w, "Competitors:        %d (failed %d)\n", len(s.Competitors), len(s.FetchFailures))
	fmt.Fprintf(w, "Average length:     %d words\n", s.AvgLength)
	fmt.Fprintf(w, "Suggested keywords: %s\n\n", strings.Join(s.SuggestedKeywords, ", "))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tLENGTH\tHEADINGS\tURL")
	for _, c := range s.Competitors {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", c.Title, c.Length, len(c.Headings), c.URL)
	}
	tw.Flush()

	if len(s.CommonHeadings) > 0 {
		fmt.Fprintln(w, "\nCommon headings:")
		for _, h := range s.CommonHeadings {
			fmt.Fprintf(w, "  %s\n", h)
		}
	}
	if len(s.FAQSuggestions) > 0 {
		fmt.Fprintln(w, "\nFAQ suggestions:")
		for _, q := range s.FAQSuggestions {
			fmt.Fprintf(w, "  %s\n", q)
		}
	}
	if s.Insights != "" {
		fmt.Fprintf(w, "\nInsights:\n%s\n", s.Insights)
	}
}

func printReport(w io.Writer, r validate.Report) {
	fmt.Fprintf(w, "Words:            %d\n", r.WordCount)
	fmt.Fprintf(w, "Keyword density:  %.2f%%\n", r.KeywordDensity)
	fmt.Fprintf(w, "Meta description: %d chars\n", r.MetaLength)
	fmt.Fprintf(w, "Headings:         h1=%d h2=%d h3=%d\n", r.H1Count, r.H2Count, r.H3Count)
	if r.OK() {
		fmt.Fprintln(w, "Validation:       ok")
		return
	}
	fmt.Fprintf(w, "Validation:       %d issue(s)\n", len(r.Violations))
	for _, v := range r.Violations {
		fmt.Fprintf(w, "  - %s: %s\n", v.Rule, v.Message)
	}
}

func saveSession(path string, s *pipeline.Session) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func loadSession(path string) (*pipeline.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var s pipeline.Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", path, err)
	}
	return &s, nil
}
