// Package discover finds literate documents under a directory tree.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Markdown returns every .md file under root, sorted, as paths relative
// to root with forward slashes. Ignore patterns use doublestar glob
// syntax and match against the relative path.
func Markdown(root string, ignore []string) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() != "." && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if ignored(rel, ignore) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		if ignored(rel, ignore) {
			return nil
		}
		docs = append(docs, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover documents in %s: %w", root, err)
	}
	sort.Strings(docs)
	return docs, nil
}

// Expand resolves an argument that may be a file, a directory, or a
// glob pattern into a list of markdown files.
func Expand(arg string, ignore []string) ([]string, error) {
	info, err := os.Stat(arg)
	switch {
	case err == nil && info.IsDir():
		docs, err := Markdown(arg, ignore)
		if err != nil {
			return nil, err
		}
		for i, d := range docs {
			docs[i] = filepath.Join(arg, filepath.FromSlash(d))
		}
		return docs, nil
	case err == nil:
		return []string{arg}, nil
	}

	matches, globErr := doublestar.FilepathGlob(arg)
	if globErr != nil {
		return nil, fmt.Errorf("expand %s: %w", arg, globErr)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("expand %s: %w", arg, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func ignored(rel string, ignore []string) bool {
	for _, pattern := range ignore {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
