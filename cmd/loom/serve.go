package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/server"
)

func serveCmd() *cobra.Command {
	var (
		addr string
		book string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rendered book and the chat endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			srv := server.New(server.Config{
				Addr:      addr,
				BookDir:   book,
				Assistant: a.assistant(),
				Logger:    a.logger,
			}, nil)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&book, "book", "", "Rendered book directory to serve at /")
	return cmd
}
