package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chazu/minerack/pkg/engine"
	"github.com/chazu/minerack/pkg/kernel/sdfx"
	"github.com/chazu/minerack/pkg/server"
)

func newServeCmd(o *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts and meshes over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if addr == "" {
				addr = o.cfg.ListenAddr
			}
			v, _, err := o.selection()
			if err != nil {
				return err
			}
			srv := server.New(
				o.log,
				engine.NewEngine(
					engine.WithTimeout(o.cfg.EvalTimeout),
					engine.WithMaxRunning(o.cfg.MaxEvaluations),
				),
				sdfx.NewWithCells(o.cfg.MeshCells),
				v,
			)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides MINERACK_LISTEN_ADDR)")
	return cmd
}
