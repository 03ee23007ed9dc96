package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/discover"
	"github.com/loomkit/loom/internal/runner"
	"github.com/loomkit/loom/protocol"
	"github.com/loomkit/loom/tangle"
	"github.com/loomkit/loom/watch"
)

func watchCmd() *cobra.Command {
	var (
		output    string
		protoName string
	)

	cmd := &cobra.Command{
		Use:   "watch <folder>",
		Short: "Re-tangle documents whenever they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			proto, err := a.protocolFor(protoName)
			if err != nil {
				return err
			}
			root := args[0]
			outRoot := a.outputRoot(output)

			// Each run re-derives everything from disk, so the change
			// batch only acts as a trigger.
			retangle := func(ctx context.Context, _ []string) {
				paths, err := discover.Markdown(root, a.cfg.Ignore)
				if err != nil {
					a.logger.Error("document discovery failed", "error", err)
					return
				}
				docs, errs := runner.ParseAll(ctx, root, paths)
				artifacts, resolveErrs := protocol.Resolve(docs, proto)
				report := tangle.New(outRoot, a.logger).Assemble(artifacts)

				errs = append(errs, resolveErrs...)
				errs = append(errs, report.Errors...)
				for _, err := range errs {
					a.logger.Error("tangle failed", "error", err)
				}
			}

			w, err := watch.New(watch.Config{
				Root:     root,
				Debounce: a.cfg.Watch.Debounce,
				OnChange: retangle,
				Logger:   a.logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Do a full run up front so the output starts consistent.
			retangle(ctx, nil)

			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from config)")
	cmd.Flags().StringVarP(&protoName, "protocol", "p", "", "Protocol: default or aimm")
	return cmd
}
