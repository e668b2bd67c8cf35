// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package article builds the full-article generation request from an
// outline, delegates it to the generation backend, and derives the article
// metadata from the result.
package article

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/pdiddy/content-engine/internal/generate"
	"github.com/pdiddy/content-engine/internal/validate"
	"github.com/pdiddy/content-engine/pkg/types"
)

// ErrorMarker prefixes the visible error in a degraded article.
const ErrorMarker = "[ARTICLE GENERATION FAILED]"

// Input is everything the article request is built from besides the rules.
type Input struct {
	Outline         string
	MainKeyword     string
	RelatedKeywords []string
	Anchors         []types.Anchor
	TargetDomain    string
	Language        string
}

// Composer produces articles.
type Composer struct {
	Backend generate.Backend
	Rules   types.RulesConfig
	Options generate.Options
	Policy  types.FailurePolicy
}

// BuildRequest encodes the article constraints for in.
func (c *Composer) BuildRequest(in Input) generate.Request {
	r := c.Rules
	language := in.Language
	if language == "" {
		language = "English"
	}

	constraints := []string{
		fmt.Sprintf("The article must be at least %d words long.", r.MinWords),
		"Every section under a top-level (H2) heading must be at least 150 words.",
		fmt.Sprintf("Open with an introduction of 70 to 100 words that contains the main keyword %q.", in.MainKeyword),
		"Directly after every H2 heading, write a short lead-in of 30 to 40 words explaining what the section covers.",
		fmt.Sprintf("Use the main keyword in at least one H2 heading and keep its density between %.0f%% and %.0f%% of all words.", r.DensityMin, r.DensityMax),
	}
	if len(in.RelatedKeywords) > 0 {
		constraints = append(constraints, fmt.Sprintf("Use each of these related keywords exactly once: %s.", strings.Join(in.RelatedKeywords, ", ")))
	}
	if len(in.Anchors) > 0 {
		links := make([]string, len(in.Anchors))
		for i, a := range in.Anchors {
			links[i] = fmt.Sprintf(`<a href="%s">%s</a>`, a.URL, a.Text)
		}
		constraints = append(constraints, "Insert each of these links exactly once, with the anchor text and URL exactly as given: "+strings.Join(links, ", ")+".")
	}
	constraints = append(constraints,
		fmt.Sprintf("End with an FAQ section of exactly %d questions, each question an H3 heading followed by its answer.", r.FAQQuestions),
	)
	if in.TargetDomain != "" {
		constraints = append(constraints, fmt.Sprintf("Close with a call to action that directs readers to %s.", in.TargetDomain))
	}
	constraints = append(constraints,
		fmt.Sprintf("After the article, add a final line \"Meta Description: ...\" of %d to %d characters.", r.MetaMinChars, r.MetaMaxChars),
		"Format the article as HTML using h1, h2, h3, p, strong, ul and li elements, with one h1 title.",
		"When you use a technical term, give its English equivalent next to it.",
		"Never mention competitor names or brands.",
		fmt.Sprintf("Write in %s.", language),
	)

	return generate.Request{
		System:       "You are an expert SEO copywriter who writes long-form articles that follow every formatting rule exactly.",
		Instructions: fmt.Sprintf("Write a complete SEO article about %q that follows the outline below.", in.MainKeyword),
		Constraints:  constraints,
		Context:      "Outline:\n" + in.Outline,
		Options:      c.Options,
	}
}

// Compose generates and post-processes an article. A backend failure is
// returned as GenerationFailed unless Policy is degrade, in which case the
// article HTML carries ErrorMarker, WordCount is 0, and Degraded is set.
func (c *Composer) Compose(ctx context.Context, in Input) (*types.Article, error) {
	if strings.TrimSpace(in.MainKeyword) == "" {
		return nil, types.InvalidInput("generate", "keyword is empty")
	}
	for _, a := range in.Anchors {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}

	text, err := c.Backend.Generate(ctx, c.BuildRequest(in))
	if err == nil && strings.TrimSpace(text) == "" {
		err = generate.ErrEmptyResponse
	}
	if err != nil {
		if c.Policy == types.PolicyDegrade {
			return Degraded(in.MainKeyword, err), nil
		}
		if types.KindOf(err) == types.KindGenerationFailed {
			return nil, fmt.Errorf("article: %w", err)
		}
		return nil, types.GenerationFailed("article", err)
	}
	return PostProcess(text, in.MainKeyword)
}

// Degraded returns the best-effort article shown when generation fails.
func Degraded(keyword string, cause error) *types.Article {
	return &types.Article{
		HTML:     fmt.Sprintf(`<p class="generation-error"><strong>%s</strong> %s</p>`, ErrorMarker, html.EscapeString(cause.Error())),
		Title:    keyword,
		Degraded: true,
	}
}

var (
	fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```\\s*$")
	blockPattern = regexp.MustCompile(`(?i)<(h[1-6]|p|ul|ol|li|div|section|article|table)[\s>]`)
)

// PostProcess derives the article from raw generation output. WordCount is
// the whitespace token count of raw; the meta description comes from its
// "Meta Description" line; Markdown output is rendered to HTML; the title is
// the first h1, falling back to keyword.
func PostProcess(raw, keyword string) (*types.Article, error) {
	body := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(body); m != nil {
		body = strings.TrimSpace(m[1])
	}

	if !blockPattern.MatchString(body) {
		rendered, err := RenderMarkdown(body)
		if err != nil {
			return nil, types.GenerationFailed("article", fmt.Errorf("rendering markdown: %w", err))
		}
		body = rendered
	}

	return &types.Article{
		HTML:            body,
		WordCount:       validate.WordCount(raw),
		Title:           titleOf(body, keyword),
		MetaDescription: validate.ExtractMetaDescription(raw),
		Raw:             raw,
	}, nil
}

// RenderMarkdown converts Markdown to HTML, passing raw HTML through.
func RenderMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	gm := goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe()))
	if err := gm.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func titleOf(body, keyword string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return keyword
	}
	if t := strings.Join(strings.Fields(doc.Find("h1").First().Text()), " "); t != "" {
		return t
	}
	return keyword
}
