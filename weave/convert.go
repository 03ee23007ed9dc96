package weave

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	readability "github.com/go-shiori/go-readability"

	"github.com/loomkit/loom/internal/fsio"
	"github.com/loomkit/loom/protocol"
)

// Convert turns a standalone source file into a literate document next
// to it: frontmatter with the file's stem as output filename, then one
// extraction-eligible block holding the file's content. HTML inputs
// are reduced to readable markdown prose instead.
func Convert(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", path, err)
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	target := filepath.Join(filepath.Dir(path), stem+".md")

	var text string
	if strings.EqualFold(ext, ".html") || strings.EqualFold(ext, ".htm") {
		text, err = htmlToLiterate(source, stem)
	} else {
		text, err = sourceToLiterate(ext, source, stem)
	}
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", path, err)
	}

	if err := fsio.WriteFileAtomic(target, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("convert %s: %w", path, err)
	}
	return target, nil
}

func sourceToLiterate(ext string, source []byte, stem string) (string, error) {
	language, ok := protocol.LanguageForExtension(ext)
	if !ok {
		return "", fmt.Errorf("no language known for extension %q", ext)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "---\noutput_filename: %s\n---\n\n# %s\n\n", stem, stem)
	b.WriteString(fencedBlock(language, string(source)))
	b.WriteString("\n")
	return b.String(), nil
}

// htmlToLiterate strips page boilerplate with readability, then
// converts the remaining article body to markdown.
func htmlToLiterate(source []byte, stem string) (string, error) {
	article, err := readability.FromReader(strings.NewReader(string(source)), nil)
	if err != nil {
		return "", fmt.Errorf("extract article: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	body, err := converter.ConvertString(article.Content)
	if err != nil {
		return "", fmt.Errorf("html to markdown: %w", err)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = stem
	}
	var b strings.Builder
	fmt.Fprintf(&b, "---\noutput_filename: %s\nbrief: %s\n---\n\n# %s\n\n", stem, yamlScalar(title), title)
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
	return b.String(), nil
}

// yamlScalar quotes a frontmatter value when it would otherwise break
// the YAML line.
func yamlScalar(s string) string {
	if strings.ContainsAny(s, ":#\"'\n") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
