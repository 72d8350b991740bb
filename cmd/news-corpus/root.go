package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.yaml"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news-corpus",
		Short: "Build labelled article corpora from dated news archives",
		Long: `news-corpus walks paginated or infinite-scroll news and fact-check archives,
keeps articles published inside a year window, extracts their body text and
appends labelled rows (label,article) to a CSV file or a database table.

Archives are assumed to be sorted newest first: the first article outside the
window ends the crawl of that site.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", defaultConfigPath, "Path to config.yaml")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewSitesCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
