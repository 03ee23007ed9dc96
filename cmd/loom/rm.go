package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/store"
)

func rmCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "rm [path...]",
		Short: "Remove tangled output and stored pages",
		Long: `Rm deletes files under the output root and their database rows.
With --all the entire output root for this project is removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			root := a.cfg.Output.Root

			if all {
				if len(args) > 0 {
					return fmt.Errorf("--all takes no path arguments")
				}
				if err := os.RemoveAll(root); err != nil {
					return fmt.Errorf("remove %s: %w", root, err)
				}
				a.logger.Info("output root removed", "root", root)
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("nothing to remove: give paths or --all")
			}

			dbPath := filepath.Join(root, store.DefaultDBName)
			var s *store.Store
			if _, err := os.Stat(dbPath); err == nil {
				if s, err = store.Open(cmd.Context(), dbPath); err != nil {
					return err
				}
				defer s.Close()
			}

			var errs []error
			for _, rel := range args {
				target := filepath.Join(root, rel)
				if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
					errs = append(errs, fmt.Errorf("remove %s: %w", target, err))
					continue
				}
				if s != nil {
					if err := s.Delete(cmd.Context(), filepath.ToSlash(rel)); err != nil && !errors.Is(err, store.ErrNotFound) {
						errs = append(errs, err)
						continue
					}
				}
				a.logger.Info("removed", "path", target)
			}
			return a.reportErrors("rm", errs)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove the whole output root")
	return cmd
}
