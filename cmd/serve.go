package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkboard/internal/config"
	"github.com/JakeFAU/linkboard/internal/server"
)

type buildFunc func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*server.App, error)

func newCommentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comments",
		Short: "Run the comment service",
		Long: `Serves comment storage, /healthcheck and /metrics. A background
scheduler probes the comment database and updates the health gauges.`,
		RunE: serve("comment", server.BuildCommentService),
	}
}

func newPostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "posts",
		Short: "Run the post service",
		RunE:  serve("post", server.BuildPostService),
	}
}

func serve(name string, build buildFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		e, err := resolveEnv(cmd.Context())
		if err != nil {
			return err
		}
		logger := e.logger.Named(name)
		app, err := build(cmd.Context(), e.cfg, logger)
		if err != nil {
			return fmt.Errorf("build %s service: %w", name, err)
		}
		if err := app.Run(cmd.Context()); err != nil {
			return fmt.Errorf("run %s service: %w", name, err)
		}
		return nil
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the comment and post tables if missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			if err := server.Migrate(cmd.Context(), e.cfg, e.logger.Named("migrate")); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			return nil
		},
	}
}
