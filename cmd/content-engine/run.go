// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/export"
	"github.com/pdiddy/content-engine/internal/pipeline"
	"github.com/pdiddy/content-engine/internal/publish"
	"github.com/pdiddy/content-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze, outline, write, validate, and export one article",
	Long: `Run executes the whole pipeline for one keyword: competitor analysis,
outline generation, article generation, validation, and export in the
configured formats. With --publish the article is also posted to WordPress
as a draft.

Anchors are read one "text | url" pair per line from --anchors-file, or
given directly with repeated --anchor flags.`,
	RunE: runRun,
}

func init() {
	addBriefFlags(runCmd)
	runCmd.Flags().Bool("publish", false, "post the article to WordPress as a draft")
	runCmd.Flags().Bool("no-export", false, "skip the export adapters")
	runCmd.Flags().String("session-out", "", "write the finished session to this YAML file")
	runCmd.MarkFlagRequired("keyword")

	rootCmd.AddCommand(runCmd)
}

func addBriefFlags(cmd *cobra.Command) {
	cmd.Flags().String("keyword", "", "main keyword (required)")
	cmd.Flags().String("related", "", "related keywords, comma-separated")
	cmd.Flags().String("anchors-file", "", `file of "text | url" lines`)
	cmd.Flags().StringArray("anchor", nil, `anchor as "text | url" (repeatable)`)
	cmd.Flags().String("domain", "", "target domain for the call to action")
	cmd.Flags().String("language", "English", "article language")
}

func briefFromFlags(cmd *cobra.Command) (types.Brief, error) {
	related, _ := cmd.Flags().GetString("related")
	anchorsFile, _ := cmd.Flags().GetString("anchors-file")
	anchorFlags, _ := cmd.Flags().GetStringArray("anchor")
	domain, _ := cmd.Flags().GetString("domain")
	language, _ := cmd.Flags().GetString("language")

	brief := types.Brief{
		RelatedKeywords: types.ParseRelatedKeywords(related),
		TargetDomain:    domain,
		Language:        language,
	}
	if anchorsFile != "" {
		data, err := os.ReadFile(anchorsFile)
		if err != nil {
			return types.Brief{}, fmt.Errorf("reading anchors: %w", err)
		}
		anchors, err := types.ParseAnchors(string(data))
		if err != nil {
			return types.Brief{}, err
		}
		brief.Anchors = append(brief.Anchors, anchors...)
	}
	for _, a := range anchorFlags {
		anchors, err := types.ParseAnchors(a)
		if err != nil {
			return types.Brief{}, err
		}
		brief.Anchors = append(brief.Anchors, anchors...)
	}
	return brief, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	keyword, _ := cmd.Flags().GetString("keyword")
	doPublish, _ := cmd.Flags().GetBool("publish")
	noExport, _ := cmd.Flags().GetBool("no-export")
	sessionOut, _ := cmd.Flags().GetString("session-out")

	brief, err := briefFromFlags(cmd)
	if err != nil {
		return err
	}
	cfg, _, orch, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	sess, err := pipeline.NewSession(brief)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := orch.Run(ctx, sess, keyword); err != nil {
		return err
	}
	report, err := orch.Validate(sess)
	if err != nil {
		return err
	}
	printReport(os.Stdout, report)

	now := time.Now()
	if !noExport && len(cfg.Pipeline.Export.Formats) > 0 {
		job := export.Job{Keyword: sess.Keyword, Article: sess.Article, Brief: sess.Brief, Now: now}
		sum, err := export.Run(cfg.Pipeline.Export, job, os.Stdout)
		if err != nil {
			return err
		}
		if sum.HasFailures() {
			fmt.Fprintf(os.Stderr, "warning: %d export format(s) failed\n", sum.Failed)
		}
	}

	if sessionOut != "" {
		if err := saveSession(sessionOut, sess); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "wrote   %s\n", sessionOut)
	}

	if doPublish {
		return publishSession(ctx, cfg, sess, now)
	}
	return nil
}

// publishSession posts the session article and records the attempt in the
// run log when the spreadsheet export is enabled.
func publishSession(ctx context.Context, cfg appConfig, sess *pipeline.Session, now time.Time) error {
	if sess.Article == nil {
		return types.PreconditionNotMet("publish", "article")
	}
	if sess.Article.Degraded {
		return &types.Error{Kind: types.KindPreconditionNotMet, Op: "publish", Detail: "article is degraded; regenerate first"}
	}
	wp, err := publish.NewWordPress(cfg.Pipeline.WordPress, os.Stderr)
	if err != nil {
		return err
	}
	link, pubErr := wp.Publish(ctx, sess.Article)

	if slices.Contains(cfg.Pipeline.Export.Formats, types.ExportSpreadsheet) {
		rec := export.NewRecord(sess.Keyword, sess.Article, sess.Brief, now)
		rec.Status = export.StatusPublished
		rec.Link = link
		if pubErr != nil {
			rec.Status = export.StatusFailed
		}
		logPath := export.LogPath(cfg.Pipeline.Export)
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "warning: run log: %v\n", err)
		} else if err := export.AppendLog(logPath, rec); err != nil {
			fmt.Fprintf(os.Stderr, "warning: run log: %v\n", err)
		}
	}
	if pubErr != nil {
		return pubErr
	}
	fmt.Fprintf(os.Stdout, "published %s\n", link)
	return nil
}

