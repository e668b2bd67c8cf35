// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package competitor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/content-engine/pkg/types"
)

const defaultSimulatedCount = 5

var nonSlug = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// SimulatedSource produces deterministic competitor records without network
// access. The same keyword and count always yield the same records.
type SimulatedSource struct {
	Count int
}

// simulatedSections rotate through records so heading frequencies vary.
var simulatedSections = []string{
	"H2: What is %s",
	"H2: Benefits of %s",
	"H2: How to choose %s",
	"H2: Common mistakes with %s",
	"H2: %s pricing",
	"H2: Frequently asked questions",
}

// Fetch returns Count records with URLs of the form
// https://example-competitor-{i}.com/article-about-{slug}.
func (s SimulatedSource) Fetch(_ context.Context, keyword string) (FetchResult, error) {
	n := s.Count
	if n <= 0 {
		n = defaultSimulatedCount
	}
	slug := Slug(keyword)

	records := make([]types.CompetitorRecord, 0, n)
	for i := 1; i <= n; i++ {
		headings := []string{fmt.Sprintf("H1: The complete guide to %s", keyword)}
		// Record i covers the first len-i%3 sections; earlier sections are
		// therefore the most common.
		k := len(simulatedSections) - i%3
		for _, sec := range simulatedSections[:k] {
			if strings.Contains(sec, "%s") {
				sec = fmt.Sprintf(sec, keyword)
			}
			headings = append(headings, sec)
		}
		records = append(records, types.CompetitorRecord{
			Title:    fmt.Sprintf("%s: competitor article %d", keyword, i),
			URL:      fmt.Sprintf("https://example-competitor-%d.com/article-about-%s", i, slug),
			Length:   1200 + 200*i,
			Headings: headings,
		})
	}
	return FetchResult{Records: records}, nil
}

// Slug lowercases keyword and joins its letter/digit runs with hyphens.
func Slug(keyword string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(keyword), "-")
	return strings.Trim(s, "-")
}
