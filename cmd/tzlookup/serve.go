package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/forestrie/go-tzlookup/tzhttp"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lookups over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateServe(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ix, err := a.openIndex(ctx)
			if err != nil {
				return err
			}

			srv := tzhttp.NewServer(a.log, ix,
				tzhttp.WithPolicy(a.cfg.BatchPolicy()),
				tzhttp.WithWorkers(a.cfg.Workers),
				tzhttp.WithMaxBatch(a.cfg.MaxBatch),
			)
			return srv.ListenAndServe(ctx, a.cfg.ListenAddr)
		},
	}
	cmd.Flags().String("listen", "", "listen address, for example :8080")
	cmd.Flags().Int("max-batch", 0, "largest batch accepted by POST /v1/batch")
	return cmd
}
