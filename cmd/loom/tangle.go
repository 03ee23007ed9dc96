package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/protocol"
	"github.com/loomkit/loom/tangle"
)

func tangleCmd() *cobra.Command {
	var (
		output    string
		protoName string
	)

	cmd := &cobra.Command{
		Use:   "tangle <file|folder|glob>",
		Short: "Extract code blocks into source files",
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

			docs, loadErrs := a.loadDocuments(cmd.Context(), args[0])
			if len(docs) == 0 && len(loadErrs) > 0 {
				return loadErrs[0]
			}

			artifacts, resolveErrs := protocol.Resolve(docs, proto)
			report := tangle.New(a.outputRoot(output), a.logger).Assemble(artifacts)

			for _, path := range report.Written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			var errs []error
			errs = append(errs, loadErrs...)
			errs = append(errs, resolveErrs...)
			errs = append(errs, report.Errors...)
			return a.reportErrors("tangle", errs)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from config)")
	cmd.Flags().StringVarP(&protoName, "protocol", "p", "", "Protocol: default or aimm")
	return cmd
}
