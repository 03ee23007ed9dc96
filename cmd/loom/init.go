package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/config"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Bootstrap the loom environment",
		Long: `Init writes a default user config if none exists, creates the
project output directory, and reports which external formatters are
available on PATH.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if err := config.NewLoader(a.logger).EnsureUserConfig(); err != nil {
				return fmt.Errorf("write user config: %w", err)
			}
			if err := os.MkdirAll(a.cfg.Output.Root, 0o755); err != nil {
				return fmt.Errorf("create output root: %w", err)
			}
			fmt.Fprintf(out, "output root: %s\n", a.cfg.Output.Root)

			for _, tool := range []string{"black", "rustfmt", "gofmt", "clang-format"} {
				if _, err := exec.LookPath(tool); err == nil {
					fmt.Fprintf(out, "detected %q on this system\n", tool)
				} else {
					fmt.Fprintf(out, "could NOT detect %q on this system\n", tool)
				}
			}
			return nil
		},
	}
}
