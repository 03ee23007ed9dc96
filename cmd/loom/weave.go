package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/weave"
)

func weaveCmd() *cobra.Command {
	var (
		source    string
		output    string
		protoName string
		bind      bool
	)

	cmd := &cobra.Command{
		Use:   "weave <file|folder|glob>",
		Short: "Fold edited source files back into documents",
		Long: `Weave reads the source files a prior tangle produced, attributes
any edits back to the contributing code blocks, and writes updated
documents to the book directory. Originals are never modified.`,
		Args: cobra.ExactArgs(1),
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

			scope := a.scopeRoot(args[0])
			w := &weave.Weaver{
				TangleRoot: a.outputRoot(source),
				OutputRoot: a.bookDir(output, args[0]),
				ScopeRoot:  scope,
				Protocol:   proto,
				Logger:     a.logger,
			}
			report := w.Weave(cmd.Context(), docs)

			for _, warning := range report.Warnings {
				a.logger.Warn(warning)
			}
			for _, path := range report.Written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}

			if bind {
				target, err := weave.BindBook(docs, scope, w.OutputRoot)
				if err != nil {
					report.Errors = append(report.Errors, err)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), target)
				}
			}

			errs := append(loadErrs, report.Errors...)
			return a.reportErrors("weave", errs)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Tangle output directory to read edits from")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Book directory for woven documents")
	cmd.Flags().StringVarP(&protoName, "protocol", "p", "", "Protocol: default or aimm")
	cmd.Flags().BoolVar(&bind, "bind", false, "Also write a content.md overview")
	return cmd
}
