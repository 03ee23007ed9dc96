package weave

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/loomkit/loom/document"
	"github.com/loomkit/loom/internal/fsio"
)

// Chapter is one document's entry in the book overview.
type Chapter struct {
	Title   string
	Path    string
	Brief   string
	Details string
}

// BindBook writes a content.md overview for a set of woven documents,
// grouped by their containing folder. Chapter links point at each
// document's book-relative path; titles and summaries come from
// frontmatter, with the file name as fallback.
func BindBook(docs []*document.Document, scopeRoot, outputRoot string) (string, error) {
	groups := make(map[string][]Chapter)
	for _, doc := range docs {
		rel := bookRelPath(scopeRoot, doc.Path)
		dir := path.Dir(rel)
		if dir == "." {
			dir = ""
		}
		ch := Chapter{
			Title: doc.OutputStem(),
			Path:  rel,
		}
		if fm := doc.Frontmatter; fm != nil {
			ch.Brief = strings.TrimSpace(fm.Brief)
			ch.Details = strings.TrimSpace(fm.Details)
		}
		groups[dir] = append(groups[dir], ch)
	}

	dirs := make([]string, 0, len(groups))
	for dir := range groups {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var b strings.Builder
	b.WriteString("# Contents\n")
	for _, dir := range dirs {
		chapters := groups[dir]
		sort.Slice(chapters, func(i, j int) bool { return chapters[i].Path < chapters[j].Path })

		if dir != "" {
			fmt.Fprintf(&b, "\n## %s\n", dir)
		}
		for _, ch := range chapters {
			b.WriteString("\n")
			fmt.Fprintf(&b, "### [%s](%s)\n", ch.Title, ch.Path)
			if ch.Brief != "" {
				fmt.Fprintf(&b, "\n%s\n", ch.Brief)
			}
			if ch.Details != "" {
				fmt.Fprintf(&b, "\n%s\n", ch.Details)
			}
		}
	}

	target := filepath.Join(outputRoot, "content.md")
	if err := fsio.WriteFileAtomic(target, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("bind book: %w", err)
	}
	return target, nil
}
