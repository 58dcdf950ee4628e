package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"pkg.jsn.cam/foodjournal/internal/api"
	"pkg.jsn.cam/foodjournal/internal/store"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			cfg.Log()

			storeOpts := []store.Option{store.WithOpenTimeout(cfg.OpenTimeout)}
			if cfg.InitialMmapSize > 0 {
				storeOpts = append(storeOpts, store.WithInitialMmapSize(cfg.InitialMmapSize))
			}
			st, err := store.Open(cfg.DBPath(), storeOpts...)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(background(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(st, api.Config{
				UserHeader:     cfg.UserHeader,
				RequestTimeout: cfg.RequestTimeout,
			})
			if err := server.Start(ctx, cfg.Listen); err != nil {
				return err
			}
			log.Printf("[FJ] Stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}

// background is the context used when cobra has none.
func background(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
