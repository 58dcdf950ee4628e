package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"pkg.jsn.cam/foodjournal/internal/store"
)

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print record counts and database size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.DBPath(), store.WithOpenTimeout(cfg.OpenTimeout))
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := st.Stats(background(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s (%s)\n", stats.Path, humanize.Bytes(uint64(stats.SizeBytes)))
			fmt.Fprintf(out, "  Users:          %s\n", humanize.Comma(int64(stats.Users)))
			fmt.Fprintf(out, "  Entries:        %s\n", humanize.Comma(int64(stats.Entries)))
			fmt.Fprintf(out, "  Recall records: %s\n", humanize.Comma(int64(stats.Recall)))
			if stats.Unknown > 0 {
				fmt.Fprintf(out, "  Unknown keys:   %s\n", humanize.Comma(int64(stats.Unknown)))
			}
			return nil
		},
	}
}
