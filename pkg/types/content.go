// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the content-engine pipeline:
// the front-end brief, competitor records, the analysis summary, the outline
// and article artifacts, configuration, and the error taxonomy.
//
// See DESIGN.md § Ledger for how each stage consumes these types.
package types

import (
	"fmt"
	"strings"
)

// Anchor is a (display text, URL) pair that must appear exactly once in the
// generated article as a hyperlink.
type Anchor struct {
	// Text is the visible anchor text.
	Text string `json:"text" yaml:"text"`

	// URL is the link target, used verbatim.
	URL string `json:"url" yaml:"url"`
}

// Validate reports an InvalidInput error when either side of the pair is empty.
func (a Anchor) Validate() error {
	if strings.TrimSpace(a.Text) == "" || strings.TrimSpace(a.URL) == "" {
		return &Error{Kind: KindInvalidInput, Op: "anchor", Detail: fmt.Sprintf("anchor %q -> %q needs both text and url", a.Text, a.URL)}
	}
	return nil
}

// ParseAnchors reads one "text | url" pair per line. Lines without a "|"
// separator are ignored; a line with more than one "|" or a pair with an
// empty side is rejected.
func ParseAnchors(input string) ([]Anchor, error) {
	var anchors []Anchor
	for _, line := range strings.Split(input, "\n") {
		text, url, ok := strings.Cut(line, "|")
		if !ok {
			continue
		}
		if strings.Contains(url, "|") {
			return nil, &Error{Kind: KindInvalidInput, Op: "anchor", Detail: fmt.Sprintf("anchor line %q has more than one |", strings.TrimSpace(line))}
		}
		a := Anchor{Text: strings.TrimSpace(text), URL: strings.TrimSpace(url)}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		anchors = append(anchors, a)
	}
	return anchors, nil
}

// ParseRelatedKeywords splits a comma-separated keyword list, trimming each
// entry and dropping empty ones.
func ParseRelatedKeywords(input string) []string {
	var out []string
	for _, k := range strings.Split(input, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Brief carries the inputs the front-end collects besides the main keyword.
type Brief struct {
	// RelatedKeywords must each be used exactly once in the article.
	RelatedKeywords []string `json:"related_keywords" yaml:"related_keywords"`

	// Anchors must each be rendered as a hyperlink exactly once.
	Anchors []Anchor `json:"anchors" yaml:"anchors"`

	// TargetDomain is the site the call-to-action points at.
	TargetDomain string `json:"target_domain" yaml:"target_domain"`

	// Language is the article language (e.g. "Arabic", "English").
	Language string `json:"language" yaml:"language"`
}

// Validate checks every anchor in the brief.
func (b Brief) Validate() error {
	for _, a := range b.Anchors {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CompetitorRecord describes one competing article.
type CompetitorRecord struct {
	Title    string   `json:"title" yaml:"title"`
	URL      string   `json:"url" yaml:"url"`
	Length   int      `json:"length" yaml:"length"`
	Headings []string `json:"headings" yaml:"headings"`
}

// FetchFailure records a competitor that could not be fetched and was
// excluded from aggregation.
type FetchFailure struct {
	URL    string `json:"url" yaml:"url"`
	Reason string `json:"reason" yaml:"reason"`
}

// AnalysisSummary is the statistical summary of the competitor set for one
// keyword. A new analysis supersedes it; it is never mutated.
type AnalysisSummary struct {
	Keyword           string             `json:"keyword" yaml:"keyword"`
	Competitors       []CompetitorRecord `json:"competitors" yaml:"competitors"`
	AvgLength         int                `json:"avg_length" yaml:"avg_length"`
	CommonHeadings    []string           `json:"common_headings" yaml:"common_headings"`
	SuggestedKeywords []string           `json:"suggested_keywords" yaml:"suggested_keywords"`
	FAQSuggestions    []string           `json:"faq_suggestions" yaml:"faq_suggestions"`
	FetchFailures     []FetchFailure     `json:"fetch_failures,omitempty" yaml:"fetch_failures,omitempty"`

	// Insights is an optional generated reading of the competitor set.
	Insights string `json:"insights,omitempty" yaml:"insights,omitempty"`
}

// Describe renders the summary as plain text for inclusion in a generation
// request.
func (s *AnalysisSummary) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Keyword: %s\n", s.Keyword)
	fmt.Fprintf(&b, "Competitors analyzed: %d\n", len(s.Competitors))
	fmt.Fprintf(&b, "Average competitor length: %d words\n", s.AvgLength)
	if len(s.CommonHeadings) > 0 {
		b.WriteString("Most common headings:\n")
		for _, h := range s.CommonHeadings {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	if len(s.SuggestedKeywords) > 0 {
		fmt.Fprintf(&b, "Suggested keywords: %s\n", strings.Join(s.SuggestedKeywords, ", "))
	}
	if len(s.FAQSuggestions) > 0 {
		b.WriteString("Questions competitors answer:\n")
		for _, q := range s.FAQSuggestions {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	if s.Insights != "" {
		fmt.Fprintf(&b, "Competitor insights:\n%s\n", s.Insights)
	}
	return b.String()
}

// Outline is the Markdown outline produced by the generation capability.
type Outline struct {
	Text string `json:"text" yaml:"text"`

	// Degraded is set when Text is an error marker rather than generated
	// content. A degraded outline cannot feed article generation.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// Article is the generated article with derived metadata.
type Article struct {
	HTML            string `json:"html" yaml:"html"`
	WordCount       int    `json:"word_count" yaml:"word_count"`
	Title           string `json:"title" yaml:"title"`
	MetaDescription string `json:"meta_description" yaml:"meta_description"`

	// Raw is the unmodified generation output.
	Raw string `json:"raw,omitempty" yaml:"raw,omitempty"`

	// Degraded is set when HTML carries an error marker instead of content.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}
