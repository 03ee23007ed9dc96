package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/weave"
)

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <source file...>",
		Short: "Turn standalone source files into literate documents",
		Long: `Convert wraps each source file in a markdown document with
frontmatter and an extraction-eligible code block, next to the
original. HTML files are reduced to readable markdown prose instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			var errs []error
			for _, path := range args {
				target, err := weave.Convert(path)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), target)
			}
			return a.reportErrors("convert", errs)
		},
	}
}

func prepareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prepare <folder>",
		Short: "Add README placeholders for source files",
		Long: `Prepare ensures every folder has a README.md referencing its source
files as @{...} placeholders, ready for weave and render to inline.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := newApp(); err != nil {
				return err
			}
			touched, err := weave.Prepare(args[0])
			for _, path := range touched {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return err
		},
	}
}
