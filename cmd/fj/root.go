package main

import (
	"github.com/spf13/cobra"
	"pkg.jsn.cam/foodjournal/internal/config"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	configPath string
	dataDir    string
}

// load resolves the configuration, letting --data-dir win over every other source.
func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "fj",
		Short:        "Food journal server",
		Long:         "fj keeps per-user food journals, targets and day cursors in a single embedded database.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory (overrides config)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newCompactCommand(opts))

	return cmd
}
