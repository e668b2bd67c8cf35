// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/content-engine/internal/publish"
	"github.com/pdiddy/content-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the pipeline over HTTP for an interactive front-end",
	Long: `Serve holds one session in memory and exposes each pipeline transition
as a JSON endpoint: session, analyze, outline, outline/retry, generate,
generate/retry, validation, and publish. Requests are serialized against
the single session.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, orch, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)

	var opts []server.Option
	if cfg.Pipeline.WordPress.URL != "" {
		wp, err := publish.NewWordPress(cfg.Pipeline.WordPress, os.Stderr)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithPublisher(wp))
	}
	if len(cfg.Pipeline.Export.Formats) > 0 {
		opts = append(opts, server.WithRunLog(cfg.Pipeline.Export))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(orch, logger, opts...).Run(ctx, cfg.ServerAddr)
}
