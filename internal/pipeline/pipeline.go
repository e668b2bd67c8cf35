// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences competitor analysis, outline generation, and
// article generation over one explicit Session.
//
// Transitions:
//
//	Analyze          any       -> analyzed   (clears outline and article)
//	Outline          analyzed+ -> outlined   (clears article first)
//	Generate         outlined+ -> generated  (overwrites article)
//	RetryOutline     clears outline and article, then Outline
//	RetryGeneration  clears article, then Generate
//
// A transition never touches an artifact upstream of its own stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pdiddy/content-engine/internal/article"
	"github.com/pdiddy/content-engine/internal/competitor"
	"github.com/pdiddy/content-engine/internal/generate"
	"github.com/pdiddy/content-engine/internal/outline"
	"github.com/pdiddy/content-engine/internal/validate"
	"github.com/pdiddy/content-engine/pkg/types"
)

// OutlineComposer produces an outline from the analysis.
type OutlineComposer interface {
	Compose(ctx context.Context, in outline.Input) (*types.Outline, error)
}

// ArticleComposer produces an article from the outline.
type ArticleComposer interface {
	Compose(ctx context.Context, in article.Input) (*types.Article, error)
}

// Orchestrator runs pipeline transitions. It is stateless with respect to
// sessions and safe to share between them.
type Orchestrator struct {
	Source   competitor.Source
	Outliner OutlineComposer
	Writer   ArticleComposer
	Rules    types.RulesConfig

	// StageTimeout bounds each generation stage; zero means no limit.
	StageTimeout time.Duration

	// Policy applies to stage failures raised outside the composers, such
	// as StageTimeout expiring.
	Policy types.FailurePolicy

	// Insights, when non-nil, adds a generated reading to every analysis.
	Insights        generate.Backend
	InsightsOptions generate.Options

	Logger *slog.Logger

	// Progress receives plain warning and progress lines; nil discards.
	Progress io.Writer
}

// New wires an Orchestrator from configuration. backend serves both
// generation stages, each with its own model options.
func New(cfg types.PipelineConfig, src competitor.Source, backend generate.Backend, logger *slog.Logger, progress io.Writer) *Orchestrator {
	o := &Orchestrator{
		Source: src,
		Outliner: &outline.Composer{
			Backend: backend,
			Rules:   cfg.Rules,
			Options: generate.StageOptions(cfg.Generation.AIConfig, cfg.Generation.Outline),
			Policy:  cfg.FailurePolicy,
		},
		Writer: &article.Composer{
			Backend: backend,
			Rules:   cfg.Rules,
			Options: generate.StageOptions(cfg.Generation.AIConfig, cfg.Generation.Article),
			Policy:  cfg.FailurePolicy,
		},
		Rules:        cfg.Rules,
		StageTimeout: cfg.Generation.Timeout,
		Policy:       cfg.FailurePolicy,
		Logger:       logger,
		Progress:     progress,
	}
	if cfg.Competitor.Insights {
		o.Insights = backend
		o.InsightsOptions = generate.StageOptions(cfg.Generation.AIConfig, cfg.Generation.Outline)
	}
	return o
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (o *Orchestrator) progress() io.Writer {
	if o.Progress != nil {
		return o.Progress
	}
	return io.Discard
}

// Analyze aggregates competitor signals for keyword. On success the summary
// replaces any previous one and the outline and article are cleared. An
// invalid keyword leaves the session untouched.
func (o *Orchestrator) Analyze(ctx context.Context, s *Session, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return types.InvalidInput("analyze", "keyword is empty")
	}
	start := time.Now()

	summary, err := competitor.Aggregate(ctx, keyword, o.Source, o.progress())
	if err != nil {
		o.fail("analyze", keyword, start, err)
		return err
	}
	if len(summary.FetchFailures) > 0 {
		o.logger().Warn("competitor fetch failures", "stage", "analyze", "keyword", keyword,
			"kind", types.KindPartialFetchFailure, "failed", len(summary.FetchFailures), "fetched", len(summary.Competitors))
	}
	if o.Insights != nil {
		withInsights, err := runStage(ctx, o.StageTimeout, "insights", func(ctx context.Context) (*types.AnalysisSummary, error) {
			return competitor.Insights(ctx, o.Insights, summary, s.Brief.Language, o.InsightsOptions)
		})
		if err != nil {
			fmt.Fprintf(o.progress(), "warning: competitor insights skipped: %v\n", err)
			o.logger().Warn("competitor insights skipped", "keyword", keyword, "error", err)
		} else {
			summary = withInsights
		}
	}

	s.Keyword = keyword
	s.Summary = summary
	s.clearFrom(StateOutlined)
	o.done("analyze", s, start)
	return nil
}

// Outline generates an outline from the current summary. Any article is
// cleared before generation starts; the outline is replaced only on success.
func (o *Orchestrator) Outline(ctx context.Context, s *Session) error {
	if s.Summary == nil {
		return types.PreconditionNotMet("outline", "analysis summary")
	}
	s.clearFrom(StateGenerated)
	start := time.Now()

	in := outline.Input{
		Keyword:         s.Keyword,
		RelatedKeywords: s.Brief.RelatedKeywords,
		Summary:         s.Summary,
		Language:        s.Brief.Language,
	}
	out, err := runStage(ctx, o.StageTimeout, "outline", func(ctx context.Context) (*types.Outline, error) {
		return o.Outliner.Compose(ctx, in)
	})
	if err != nil && o.degrades(err) {
		o.degraded("outline", s.Keyword, err)
		out, err = outline.Degraded(err), nil
	}
	if err != nil {
		o.fail("outline", s.Keyword, start, err)
		return err
	}
	s.Outline = out
	o.done("outline", s, start, "degraded", out.Degraded)
	return nil
}

// Generate writes the article from the current outline. A degraded outline
// does not satisfy the precondition. On failure the previous article, if
// any, is kept.
func (o *Orchestrator) Generate(ctx context.Context, s *Session) error {
	if err := requireOutline(s); err != nil {
		return err
	}
	start := time.Now()

	in := article.Input{
		Outline:         s.Outline.Text,
		MainKeyword:     s.Keyword,
		RelatedKeywords: s.Brief.RelatedKeywords,
		Anchors:         s.Brief.Anchors,
		TargetDomain:    s.Brief.TargetDomain,
		Language:        s.Brief.Language,
	}
	art, err := runStage(ctx, o.StageTimeout, "article", func(ctx context.Context) (*types.Article, error) {
		return o.Writer.Compose(ctx, in)
	})
	if err != nil && o.degrades(err) {
		o.degraded("generate", s.Keyword, err)
		art, err = article.Degraded(s.Keyword, err), nil
	}
	if err != nil {
		o.fail("generate", s.Keyword, start, err)
		return err
	}
	s.Article = art
	o.done("generate", s, start, "words", art.WordCount, "degraded", art.Degraded)
	return nil
}

// RetryOutline discards the outline and its dependent article, then
// regenerates the outline.
func (o *Orchestrator) RetryOutline(ctx context.Context, s *Session) error {
	if s.Summary == nil {
		return types.PreconditionNotMet("retry outline", "analysis summary")
	}
	s.clearFrom(StateOutlined)
	return o.Outline(ctx, s)
}

// RetryGeneration discards the article, then regenerates it.
func (o *Orchestrator) RetryGeneration(ctx context.Context, s *Session) error {
	if err := requireOutline(s); err != nil {
		return err
	}
	s.clearFrom(StateGenerated)
	return o.Generate(ctx, s)
}

// Run executes Analyze, Outline, and Generate in order, stopping at the
// first failure.
func (o *Orchestrator) Run(ctx context.Context, s *Session, keyword string) error {
	if err := o.Analyze(ctx, s, keyword); err != nil {
		return err
	}
	if err := o.Outline(ctx, s); err != nil {
		return err
	}
	return o.Generate(ctx, s)
}

// Validate checks the current article against the rules, the session
// keyword, and the brief's anchors.
func (o *Orchestrator) Validate(s *Session) (validate.Report, error) {
	if s.Article == nil {
		return validate.Report{}, types.PreconditionNotMet("validate", "article")
	}
	return validate.Check(*s.Article, s.Keyword, s.Brief.Anchors, o.Rules), nil
}

func requireOutline(s *Session) error {
	if s.Outline == nil {
		return types.PreconditionNotMet("generate", "outline")
	}
	if s.Outline.Degraded {
		return &types.Error{Kind: types.KindPreconditionNotMet, Op: "generate", Detail: "outline is degraded; retry the outline first"}
	}
	return nil
}

// degrades reports whether err should become a degraded artifact rather
// than a returned error.
func (o *Orchestrator) degrades(err error) bool {
	return o.Policy == types.PolicyDegrade && types.KindOf(err) == types.KindGenerationFailed
}

func (o *Orchestrator) done(stage string, s *Session, start time.Time, extra ...any) {
	args := append([]any{"stage", stage, "keyword", s.Keyword, "state", s.State(), "duration", time.Since(start)}, extra...)
	o.logger().Info("stage complete", args...)
}

func (o *Orchestrator) degraded(stage, keyword string, err error) {
	o.logger().Warn("stage degraded", "stage", stage, "keyword", keyword, "kind", types.KindOf(err), "error", err)
}

func (o *Orchestrator) fail(stage, keyword string, start time.Time, err error) {
	o.logger().Error("stage failed", "stage", stage, "keyword", keyword,
		"kind", types.KindOf(err), "duration", time.Since(start), "error", err)
}

// runStage runs fn under timeout. If the deadline passes before fn returns,
// runStage returns GenerationFailed without waiting for fn, so a backend
// that ignores its context cannot hang the pipeline. Cancellation of ctx is
// returned as is.
func runStage[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, tagTimeout(op, r.err)
	case <-ctx.Done():
		select {
		case r := <-ch:
			return r.v, tagTimeout(op, r.err)
		default:
		}
		var zero T
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		return zero, types.GenerationFailed(op, fmt.Errorf("stage timed out: %w", ctx.Err()))
	}
}

// tagTimeout classifies an untagged deadline error as a generation failure.
func tagTimeout(op string, err error) error {
	if err != nil && types.KindOf(err) == "" && errors.Is(err, context.DeadlineExceeded) {
		return types.GenerationFailed(op, err)
	}
	return err
}
