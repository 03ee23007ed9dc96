package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom/document"
)

func TestPageTitleFromFrontmatter(t *testing.T) {
	doc := document.Parse("ops.md", "---\noutput_filename: math_operations\n---\n# Math\n\nsome prose\n")
	page, err := New(Options{}, nil).Page(doc)
	require.NoError(t, err)

	assert.Contains(t, page, "<title>math_operations</title>")
	assert.Contains(t, page, "<h1")
	assert.Contains(t, page, "some prose")
	// Frontmatter never leaks into the page body.
	assert.NotContains(t, page, "output_filename")
}

func TestPageRendersGFMTable(t *testing.T) {
	doc := document.Parse("t.md", "| a | b |\n|---|---|\n| 1 | 2 |\n")
	page, err := New(Options{}, nil).Page(doc)
	require.NoError(t, err)
	assert.Contains(t, page, "<table>")
}

func TestPageMermaidRewrite(t *testing.T) {
	doc := document.Parse("d.md", "```mermaid\ngraph TD;\nA-->B;\n```\n")
	page, err := New(Options{MermaidJS: "https://example.test/mermaid.js"}, nil).Page(doc)
	require.NoError(t, err)

	assert.Contains(t, page, `<pre class="mermaid">`)
	assert.Contains(t, page, "graph TD;")
	assert.Contains(t, page, "https://example.test/mermaid.js")
	assert.NotContains(t, page, "language-mermaid")
}

func TestPageMermaidDisabled(t *testing.T) {
	doc := document.Parse("d.md", "```mermaid\ngraph TD;\n```\n")
	page, err := New(Options{DisableMermaid: true}, nil).Page(doc)
	require.NoError(t, err)

	assert.Contains(t, page, "language-mermaid")
	assert.NotContains(t, page, "mermaid.initialize")
}

func TestFolderWritesPagesAndManifest(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("# A\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.md"), []byte("# B\n"), 0o644))

	report, err := New(Options{}, nil).Folder(root, out, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Equal(t, []string{"a.html", "sub/b.html"}, report.Created)

	manifest, err := os.ReadFile(filepath.Join(out, "created_files.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a.html\nsub/b.html\n", string(manifest))

	page, err := os.ReadFile(filepath.Join(out, "sub", "b.html"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(page), "<h1"))
}
