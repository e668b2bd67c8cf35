// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package competitor turns competing articles for a keyword into an
// AnalysisSummary: average length, ranked common headings, suggested
// keywords, and candidate FAQ questions.
//
// Records come from a Source. Sources may return partial results; fetch
// failures are reported, recorded on the summary, and never abort the
// aggregation of the remaining records.
package competitor

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/content-engine/pkg/types"
)

const (
	maxCommonHeadings    = 8
	maxSuggestedKeywords = 5
	maxFAQSuggestions    = 12
)

// suggestedTemplates expand the keyword into related search phrases.
var suggestedTemplates = []string{
	"{kw} best",
	"{kw} guide",
	"{kw} review",
	"{kw} tips",
	"{kw} comparison",
	"{kw} price",
}

// faqTemplates expand the keyword into candidate FAQ questions.
var faqTemplates = []string{
	"What is {kw}?",
	"How does {kw} work?",
	"Why is {kw} important?",
	"What are the benefits of {kw}?",
	"What are the drawbacks of {kw}?",
	"How much does {kw} cost?",
	"How do I choose the right {kw}?",
	"What are the most common mistakes with {kw}?",
	"How long does {kw} last?",
	"Is {kw} worth it?",
	"What are the alternatives to {kw}?",
	"How do I get started with {kw}?",
	"Where can I buy {kw}?",
	"What should I look for in {kw}?",
}

// Source yields competitor records for a keyword.
type Source interface {
	Fetch(ctx context.Context, keyword string) (FetchResult, error)
}

// FetchResult holds the records a source produced and the competitors it
// had to skip. A non-nil error from Fetch means the source produced nothing
// usable; per-record problems belong in Failures.
type FetchResult struct {
	Records  []types.CompetitorRecord
	Failures []types.FetchFailure
}

// Aggregate fetches records from src and summarizes them. An empty keyword
// is InvalidInput. A source-level error is absorbed as a single fetch
// failure, so the summary degrades to an empty record set instead of
// failing. Each failure is written to w as a "warning:" line.
func Aggregate(ctx context.Context, keyword string, src Source, w io.Writer) (*types.AnalysisSummary, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, types.InvalidInput("analyze", "keyword is empty")
	}
	if w == nil {
		w = io.Discard
	}

	res, err := src.Fetch(ctx, keyword)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetching competitors: %w", ctx.Err())
		}
		res = FetchResult{Failures: []types.FetchFailure{{URL: "(source)", Reason: err.Error()}}}
	}
	for _, f := range res.Failures {
		fmt.Fprintf(w, "warning: competitor %s excluded: %s\n", f.URL, f.Reason)
	}

	s := Summarize(keyword, res.Records)
	s.FetchFailures = res.Failures
	return s, nil
}

// Summarize computes the statistical summary over records.
func Summarize(keyword string, records []types.CompetitorRecord) *types.AnalysisSummary {
	return &types.AnalysisSummary{
		Keyword:           keyword,
		Competitors:       records,
		AvgLength:         AverageLength(records),
		CommonHeadings:    CommonHeadings(records, maxCommonHeadings),
		SuggestedKeywords: expand(suggestedTemplates, keyword, maxSuggestedKeywords),
		FAQSuggestions:    expand(faqTemplates, keyword, maxFAQSuggestions),
	}
}

// AverageLength is the floor of the mean record length, 0 for no records.
func AverageLength(records []types.CompetitorRecord) int {
	if len(records) == 0 {
		return 0
	}
	total := 0
	for _, r := range records {
		total += r.Length
	}
	return total / len(records)
}

// CommonHeadings ranks headings by descending frequency across records.
// Ties keep the order in which each heading was first seen. At most limit
// headings are returned.
func CommonHeadings(records []types.CompetitorRecord, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		for _, h := range r.Headings {
			if counts[h] == 0 {
				order = append(order, h)
			}
			counts[h]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

func expand(templates []string, keyword string, limit int) []string {
	out := make([]string, 0, limit)
	for _, t := range templates {
		if len(out) == limit {
			break
		}
		out = append(out, strings.ReplaceAll(t, "{kw}", keyword))
	}
	return out
}
