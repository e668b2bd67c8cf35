// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline builds the outline generation request from a competitor
// summary and delegates it to the generation backend.
package outline

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/content-engine/internal/generate"
	"github.com/pdiddy/content-engine/pkg/types"
)

// ErrorMarker prefixes the text of a degraded outline.
const ErrorMarker = "[OUTLINE GENERATION FAILED]"

// Input is what an outline is built from.
type Input struct {
	Keyword         string
	RelatedKeywords []string
	Summary         *types.AnalysisSummary
	Language        string
}

// Composer produces outlines. Rules supplies the structural targets;
// Policy decides whether a backend failure is returned or turned into a
// degraded outline.
type Composer struct {
	Backend generate.Backend
	Rules   types.RulesConfig
	Options generate.Options
	Policy  types.FailurePolicy
}

// BuildRequest returns the outline request for in.
func (c *Composer) BuildRequest(in Input) generate.Request {
	r := c.Rules
	keyword, related := in.Keyword, in.RelatedKeywords
	language := in.Language
	if language == "" {
		language = "English"
	}

	constraints := []string{
		fmt.Sprintf("Start with a single H1 title containing the keyword %q.", keyword),
		fmt.Sprintf("Use H2 headings for between %d and %d top-level sections, and H3 headings for sub-points.", r.MinSections, r.MaxSections),
		fmt.Sprintf("Include a mandatory FAQ section with exactly %d questions as H3 headings.", r.FAQQuestions),
		fmt.Sprintf("Plan enough depth for an article of at least %d words; note the focus of each section.", r.MinWords),
		fmt.Sprintf("Write the outline in %s.", language),
		"Return the outline as Markdown only, using #, ## and ### for the heading levels.",
	}
	if len(related) > 0 {
		constraints = append(constraints, fmt.Sprintf("Cover these related keywords across the sections: %s.", strings.Join(related, ", ")))
	}

	req := generate.Request{
		System:       "You are an SEO content strategist who designs article outlines that outrank competing pages.",
		Instructions: fmt.Sprintf("Create a detailed article outline for the keyword %q, informed by the competitor analysis below.", keyword),
		Constraints:  constraints,
		Options:      c.Options,
	}
	if in.Summary != nil {
		req.Context = in.Summary.Describe()
	}
	return req
}

// Compose generates an outline. A backend failure is returned as
// GenerationFailed, unless Policy is degrade, in which case the outline
// text is ErrorMarker followed by the cause and Degraded is set.
func (c *Composer) Compose(ctx context.Context, in Input) (*types.Outline, error) {
	if strings.TrimSpace(in.Keyword) == "" {
		return nil, types.InvalidInput("outline", "keyword is empty")
	}
	text, err := c.Backend.Generate(ctx, c.BuildRequest(in))
	if err == nil && strings.TrimSpace(text) == "" {
		err = generate.ErrEmptyResponse
	}
	if err != nil {
		if c.Policy == types.PolicyDegrade {
			return Degraded(err), nil
		}
		if types.KindOf(err) == types.KindGenerationFailed {
			return nil, fmt.Errorf("outline: %w", err)
		}
		return nil, types.GenerationFailed("outline", err)
	}
	return &types.Outline{Text: strings.TrimSpace(text)}, nil
}

// Degraded returns the placeholder outline recorded for cause.
func Degraded(cause error) *types.Outline {
	return &types.Outline{Text: fmt.Sprintf("%s %v", ErrorMarker, cause), Degraded: true}
}
