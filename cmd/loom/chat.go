package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "chat <prompt...>",
		Short: "Ask the assistant about the project's documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			prompt := strings.Join(args, " ")
			resp, err := a.assistant().AskAboutFile(cmd.Context(), prompt, file)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Content)
			a.logger.Debug("chat complete",
				"request_id", resp.RequestID,
				"model", resp.Model,
				"tokens", resp.Usage.TotalTokens)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Markdown file providing context")
	return cmd
}
