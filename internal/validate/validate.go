// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate scores a generated article against SEO rules: word count,
// keyword density, anchor coverage, meta description length, and heading
// structure. Every function is pure and never fails; callers act on the
// returned measurements.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/content-engine/pkg/types"
)

// DefaultRules returns the constraints encoded into the article request.
func DefaultRules() types.RulesConfig {
	return types.RulesConfig{
		MinWords:     2500,
		MetaMinChars: 150,
		MetaMaxChars: 160,
		DensityMin:   1.0,
		DensityMax:   2.0,
		MinSections:  8,
		MaxSections:  12,
		FAQQuestions: 12,
	}
}

// metaPattern finds a "Meta Description:" label, tolerating Markdown bold or
// a closing HTML tag around the colon, and captures the text up to the next
// newline or markup boundary. The colon is required so prose mentions of meta
// descriptions never match.
var metaPattern = regexp.MustCompile(`(?i)\bmeta[ \t]+description\b[ \t]*(?:\*\*|</[a-z0-9]+>)?[ \t]*[:：][ \t]*(?:\*\*|</[a-z0-9]+>)?[ \t]*([^\n<]*)`)

// headingPattern matches opening h1-h3 tags.
var headingPattern = regexp.MustCompile(`(?i)<h([1-3])[\s>]`)

// WordCount returns the number of whitespace-delimited tokens in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// KeywordDensity returns the percentage of whitespace tokens that contain
// keyword as a case-insensitive substring, rounded to two decimals. A keyword
// made of several words therefore only matches tokens that contain all of it.
func KeywordDensity(text, keyword string) float64 {
	tokens := strings.Fields(text)
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if len(tokens) == 0 || kw == "" {
		return 0
	}
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(strings.ToLower(tok), kw) {
			hits++
		}
	}
	return round2(float64(hits) / float64(len(tokens)) * 100)
}

// round2 rounds v to two decimals through its decimal rendering, so the
// result is the value printed with %.2f. Exact ties round half to even.
func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}

// MissingAnchors returns the anchors whose URL and text both fail to appear
// verbatim in body, in input order without duplicates.
func MissingAnchors(body string, anchors []types.Anchor) []types.Anchor {
	var missing []types.Anchor
	seen := make(map[types.Anchor]bool)
	for _, a := range anchors {
		if seen[a] {
			continue
		}
		seen[a] = true
		if (a.URL != "" && strings.Contains(body, a.URL)) || (a.Text != "" && strings.Contains(body, a.Text)) {
			continue
		}
		missing = append(missing, a)
	}
	return missing
}

// AnchorOccurrences counts hyperlinks in body whose href is the anchor URL.
func AnchorOccurrences(body string, a types.Anchor) int {
	if a.URL == "" {
		return 0
	}
	return strings.Count(body, `href="`+a.URL+`"`) + strings.Count(body, `href='`+a.URL+`'`)
}

// ExtractMetaDescription returns the text following the last non-empty
// "Meta Description:" label, or "" when there is none.
func ExtractMetaDescription(text string) string {
	matches := metaPattern.FindAllStringSubmatch(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if desc := strings.Trim(strings.TrimSpace(matches[i][1]), "*_ \t\""); desc != "" {
			return desc
		}
	}
	return ""
}

// HeadingCounts returns how many h1, h2, and h3 elements html contains.
func HeadingCounts(html string) (h1, h2, h3 int) {
	for _, m := range headingPattern.FindAllStringSubmatch(html, -1) {
		switch m[1] {
		case "1":
			h1++
		case "2":
			h2++
		case "3":
			h3++
		}
	}
	return h1, h2, h3
}

// Violation describes one broken rule.
type Violation struct {
	Rule    string `json:"rule" yaml:"rule"`
	Message string `json:"message" yaml:"message"`
}

// Report holds every measurement taken over an article.
type Report struct {
	WordCount       int            `json:"word_count" yaml:"word_count"`
	KeywordDensity  float64        `json:"keyword_density" yaml:"keyword_density"`
	MetaDescription string         `json:"meta_description" yaml:"meta_description"`
	MetaLength      int            `json:"meta_length" yaml:"meta_length"`
	H1Count         int            `json:"h1_count" yaml:"h1_count"`
	H2Count         int            `json:"h2_count" yaml:"h2_count"`
	H3Count         int            `json:"h3_count" yaml:"h3_count"`
	MissingAnchors  []types.Anchor `json:"missing_anchors,omitempty" yaml:"missing_anchors,omitempty"`
	RepeatedAnchors []types.Anchor `json:"repeated_anchors,omitempty" yaml:"repeated_anchors,omitempty"`
	Violations      []Violation    `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// OK reports whether the article satisfies every rule.
func (r Report) OK() bool {
	return len(r.Violations) == 0
}

// Check measures article against rules. Zero-valued rule fields are skipped.
func Check(article types.Article, keyword string, anchors []types.Anchor, rules types.RulesConfig) Report {
	body := article.HTML
	if body == "" {
		body = article.Raw
	}

	r := Report{
		WordCount:       article.WordCount,
		KeywordDensity:  KeywordDensity(body, keyword),
		MetaDescription: article.MetaDescription,
		MetaLength:      utf8.RuneCountInString(article.MetaDescription),
		MissingAnchors:  MissingAnchors(body, anchors),
	}
	r.H1Count, r.H2Count, r.H3Count = HeadingCounts(body)

	for _, a := range anchors {
		if AnchorOccurrences(body, a) > 1 {
			r.RepeatedAnchors = append(r.RepeatedAnchors, a)
		}
	}

	add := func(rule, format string, args ...any) {
		r.Violations = append(r.Violations, Violation{Rule: rule, Message: fmt.Sprintf(format, args...)})
	}

	if rules.MinWords > 0 && r.WordCount < rules.MinWords {
		add("word_count", "%d words, want at least %d", r.WordCount, rules.MinWords)
	}
	if rules.MetaMinChars > 0 || rules.MetaMaxChars > 0 {
		switch {
		case r.MetaLength == 0:
			add("meta_description", "no meta description found")
		case rules.MetaMinChars > 0 && r.MetaLength < rules.MetaMinChars:
			add("meta_description", "%d characters, want at least %d", r.MetaLength, rules.MetaMinChars)
		case rules.MetaMaxChars > 0 && r.MetaLength > rules.MetaMaxChars:
			add("meta_description", "%d characters, want at most %d", r.MetaLength, rules.MetaMaxChars)
		}
	}
	if rules.DensityMin > 0 && r.KeywordDensity < rules.DensityMin {
		add("keyword_density", "%.2f%%, want at least %.2f%%", r.KeywordDensity, rules.DensityMin)
	}
	if rules.DensityMax > 0 && r.KeywordDensity > rules.DensityMax {
		add("keyword_density", "%.2f%%, want at most %.2f%%", r.KeywordDensity, rules.DensityMax)
	}
	if rules.MinSections > 0 && r.H2Count < rules.MinSections {
		add("sections", "%d top-level sections, want at least %d", r.H2Count, rules.MinSections)
	}
	if rules.MaxSections > 0 && r.H2Count > rules.MaxSections {
		add("sections", "%d top-level sections, want at most %d", r.H2Count, rules.MaxSections)
	}
	if rules.FAQQuestions > 0 && r.H3Count < rules.FAQQuestions {
		add("faq", "%d sub-headings, want at least %d FAQ questions", r.H3Count, rules.FAQQuestions)
	}
	for _, a := range r.MissingAnchors {
		add("anchors", "anchor %q (%s) not found", a.Text, a.URL)
	}
	for _, a := range r.RepeatedAnchors {
		add("anchors", "anchor %q (%s) linked more than once", a.Text, a.URL)
	}
	return r
}
