package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/render"
)

func renderCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render <folder>",
		Short: "Render documents into an HTML book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			r := render.New(render.Options{
				CSS:            a.cfg.Render.CSS,
				MermaidJS:      a.cfg.Render.MermaidJS,
				DisableMermaid: a.cfg.Render.DisableMermaid,
			}, a.logger)

			outDir := a.bookDir(output, args[0])
			report, err := r.Folder(args[0], outDir, a.cfg.Ignore)
			if err != nil {
				return err
			}
			for _, rel := range report.Created {
				fmt.Fprintln(cmd.OutOrStdout(), rel)
			}
			return a.reportErrors("render", report.Errors)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory for HTML pages")
	return cmd
}
