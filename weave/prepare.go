package weave

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/loomkit/loom/internal/fsio"
)

// Prepare ensures every folder under root has a README.md referencing
// its source files as @{...} placeholders, so a later weave or render
// can inline them. Existing READMEs gain placeholders only for files
// they do not already mention.
func Prepare(root string) ([]string, error) {
	var touched []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() != "." && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		sources, err := sourceFiles(path)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			return nil
		}

		readme := filepath.Join(path, "README.md")
		existing, err := os.ReadFile(readme)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read %s: %w", readme, err)
		}

		text := string(existing)
		changed := false
		if text == "" {
			text = fmt.Sprintf("# %s\n", filepath.Base(path))
			changed = true
		}
		for _, name := range sources {
			ref := "@{" + name + "}"
			if strings.Contains(text, "@{"+name) {
				continue
			}
			if !strings.HasSuffix(text, "\n") {
				text += "\n"
			}
			text += "\n" + ref + "\n"
			changed = true
		}

		if changed {
			if err := fsio.WriteFileAtomic(readme, []byte(text), 0o644); err != nil {
				return err
			}
			touched = append(touched, readme)
		}
		return nil
	})
	if err != nil {
		return touched, fmt.Errorf("prepare %s: %w", root, err)
	}
	return touched, nil
}

// sourceFiles lists the directory's immediate source files, sorted.
func sourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		switch ext {
		case ".py", ".rs", ".go", ".c", ".h", ".cpp", ".js", ".ts", ".sh", ".sql":
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
