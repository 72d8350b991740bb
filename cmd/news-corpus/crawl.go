package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"news-corpus-crawler/internal/app"
	"news-corpus-crawler/internal/config"
	"news-corpus-crawler/internal/observability"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the configured sites",
		Long: `Crawl every site from the sites file, or only those named with --site.
Sites run one after another; a failing site is reported and the rest still run.`,
		Args: cobra.NoArgs,
		RunE: runCrawl,
	}

	cmd.Flags().StringSliceP("site", "s", nil, "Crawl only these sites (repeatable)")

	return cmd
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	names, _ := cmd.Flags().GetStringSlice("site")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	all, err := cfg.LoadSites()
	if err != nil {
		return err
	}
	sites, err := config.SelectSites(all, names)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(observability.LogOptions{
		Path:       cfg.Observability.LogPath,
		Level:      cfg.Observability.LogLevel,
		MaxSizeMB:  cfg.Observability.LogMaxSizeMB,
		MaxBackups: cfg.Observability.LogMaxBackups,
		MaxAgeDays: cfg.Observability.LogMaxAgeDays,
	})
	defer logger.Sync()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := app.GracefulShutdown(parent, logger)
	defer cancel()

	o := app.NewOrchestrator(cfg, logger, observability.NewMetrics())
	summaries, runErr := o.Run(ctx, sites)

	out := cmd.OutOrStdout()
	for _, s := range summaries {
		fmt.Fprintf(out, "%-20s scraped %d articles, visited %d URLs, stopped: %s\n",
			s.Site, s.Emitted, s.Visited, s.Reason)
	}
	if runErr != nil {
		return fmt.Errorf("crawl run %s finished with errors: %w", o.RunID(), runErr)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("crawl run %s interrupted: %w", o.RunID(), ctx.Err())
	}
	return nil
}
