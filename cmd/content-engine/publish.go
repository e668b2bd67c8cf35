// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var publishCmd = &cobra.Command{
	Use:   "publish <session.yaml>",
	Short: "Post a saved session's article to WordPress as a draft",
	Long: `Publish reads a session written by "run --session-out" and posts its
article to the configured WordPress site as a draft. The application
password is read from wordpress.app_password or .secrets/wordpress-app-password.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	sess, err := loadSession(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}
	if cfg.Pipeline.WordPress.URL == "" {
		return fmt.Errorf("wordpress.url is not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return publishSession(ctx, cfg, sess, time.Now())
}
