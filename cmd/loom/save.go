package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/store"
)

func saveCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "save <folder>",
		Short: "Persist rendered pages into the project database",
		Long: `Save walks a rendered book folder and stores each HTML page in the
SQLite database, making the corpus queryable by the chat assistant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = filepath.Join(a.cfg.Output.Root, store.DefaultDBName)
			}
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return fmt.Errorf("create database directory: %w", err)
			}

			s, err := store.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			var files []store.File
			root := args[0]
			err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return err
				}
				ext := filepath.Ext(path)
				if ext != ".html" && ext != ".md" {
					return nil
				}
				content, readErr := os.ReadFile(path)
				if readErr != nil {
					return readErr
				}
				rel, relErr := filepath.Rel(root, path)
				if relErr != nil {
					rel = path
				}
				files = append(files, store.File{Path: filepath.ToSlash(rel), Content: string(content)})
				return nil
			})
			if err != nil {
				return fmt.Errorf("collect files: %w", err)
			}

			if err := s.SaveAll(cmd.Context(), files); err != nil {
				return err
			}
			a.logger.Info("files saved", "count", len(files), "db", dbPath)
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d files to %s\n", len(files), dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Database path (default <output root>/loom.db)")
	return cmd
}
