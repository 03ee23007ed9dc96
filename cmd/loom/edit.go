package main

import (
	"github.com/spf13/cobra"

	"github.com/loomkit/loom/reformat"
)

func editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <file|folder|glob>",
		Short: "Reformat embedded code blocks in place",
		Long: `Edit runs the configured formatter for each block language (black,
rustfmt, gofmt, clang-format by default) over every extraction-eligible
block and rewrites the documents in place. Bytes outside the fences are
never touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			reg, err := a.formatterRegistry()
			if err != nil {
				return err
			}

			docs, errs := a.loadDocuments(cmd.Context(), args[0])
			rw := reformat.NewRewriter(reg, a.logger)

			for _, doc := range docs {
				res, err := rw.Reformat(cmd.Context(), doc)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				// Block-local formatter failures are warnings, not run
				// failures.
				for _, blockErr := range res.BlockErrors {
					a.logger.Warn("formatter failure", "error", blockErr)
				}
			}
			return a.reportErrors("edit", errs)
		},
	}
	return cmd
}
