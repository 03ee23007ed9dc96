// Package main provides the loom binary entry point. Loom is a
// literate-programming toolchain: it extracts code from markdown
// documents (tangle), folds edited source back in (weave), reformats
// embedded blocks in place, and renders documents into an HTML book.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/loomkit/loom/llm/providers"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "loom"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Literate programming toolchain",
		Long: `Loom keeps code and its explanation in one markdown document.

tangle extracts the fenced code blocks into standalone source files,
weave folds externally edited source back into the documents, edit
runs language formatters over the embedded blocks in place, and
render builds a browsable HTML book.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		tangleCmd(),
		weaveCmd(),
		editCmd(),
		renderCmd(),
		saveCmd(),
		chatCmd(),
		serveCmd(),
		watchCmd(),
		convertCmd(),
		prepareCmd(),
		rmCmd(),
		initCmd(),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func configureLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
