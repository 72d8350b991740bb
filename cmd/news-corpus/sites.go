package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"news-corpus-crawler/internal/config"
)

// NewSitesCmd creates the sites command.
func NewSitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the configured site adapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			sites, err := cfg.LoadSites()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLABEL\tMODE\tDATES\tWINDOW\tOUTPUT\tSTART URL")
			for i := range sites {
				a := &sites[i]
				output := cfg.OutputPath(a)
				if cfg.Output.Sink == config.SinkDatabase {
					output = cfg.Storage.Driver + ":" + cfg.Storage.Table
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d-%d\t%s\t%s\n",
					a.Name, a.Label, a.Pagination.Mode, a.Date.Source,
					a.Date.Window.From, a.Date.Window.To, output, a.StartURL)
			}
			return w.Flush()
		},
	}
}
