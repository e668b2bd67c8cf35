// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/content-engine/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Aggregate competitor signals for a keyword",
	Long: `Analyze fetches competitor records from the configured source
(simulated, fixture, or web) and prints the aggregated summary: average
length, common headings, suggested keywords, and FAQ suggestions.
Competitors that fail to fetch are reported as warnings and excluded.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("keyword", "", "main keyword (required)")
	analyzeCmd.Flags().String("language", "English", "language for the optional insights reading")
	analyzeCmd.Flags().StringP("output", "o", "table", "output format: table, json, or yaml")
	analyzeCmd.MarkFlagRequired("keyword")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	keyword, _ := cmd.Flags().GetString("keyword")
	language, _ := cmd.Flags().GetString("language")
	output, _ := cmd.Flags().GetString("output")

	_, _, orch, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	sess := &pipeline.Session{}
	sess.Brief.Language = language

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := orch.Analyze(ctx, sess, keyword); err != nil {
		return err
	}

	if output == "table" {
		printSummary(os.Stdout, sess.Summary)
		return nil
	}
	return writeStructured(os.Stdout, output, sess.Summary)
}
