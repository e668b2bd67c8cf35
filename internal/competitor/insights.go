// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package competitor

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/content-engine/internal/generate"
	"github.com/pdiddy/content-engine/pkg/types"
)

// InsightsRequest asks the generation capability for a qualitative reading
// of the competitor set: recurring topics, content gaps, and questions the
// competitors answer.
func InsightsRequest(s *types.AnalysisSummary, language string, opts generate.Options) generate.Request {
	if language == "" {
		language = "English"
	}
	var recs strings.Builder
	for _, r := range s.Competitors {
		fmt.Fprintf(&recs, "- %s (%s, %d words): %s\n", r.Title, r.URL, r.Length, strings.Join(r.Headings, "; "))
	}
	return generate.Request{
		System:       "You are an SEO analyst reviewing the articles that rank for a keyword.",
		Instructions: fmt.Sprintf("Analyze the competitor data for the keyword %q.", s.Keyword),
		Constraints: []string{
			"List the main and sub headings competitors repeat most often.",
			"State the typical content length.",
			"List the questions competitors answer.",
			"Suggest additional keywords based on their coverage.",
			"Point out topics none of them cover well.",
			fmt.Sprintf("Answer in %s as a short structured list.", language),
		},
		Context: s.Describe() + "\nCompetitor pages:\n" + recs.String(),
		Options: opts,
	}
}

// Insights returns a copy of s carrying the generated analysis. The
// original summary is left untouched.
func Insights(ctx context.Context, b generate.Backend, s *types.AnalysisSummary, language string, opts generate.Options) (*types.AnalysisSummary, error) {
	text, err := b.Generate(ctx, InsightsRequest(s, language, opts))
	if err != nil {
		return nil, fmt.Errorf("competitor insights: %w", err)
	}
	out := *s
	out.Insights = strings.TrimSpace(text)
	return &out, nil
}
