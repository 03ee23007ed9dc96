package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("# doc\n"), 0o644))
	}
	return root
}

func TestMarkdownFindsNestedDocs(t *testing.T) {
	root := mkTree(t, "a.md", "sub/b.md", "sub/deep/c.md", "notes.txt")
	docs, err := Markdown(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "sub/b.md", "sub/deep/c.md"}, docs)
}

func TestMarkdownSkipsHiddenDirs(t *testing.T) {
	root := mkTree(t, "a.md", ".git/objects/x.md", ".cache/b.md")
	docs, err := Markdown(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, docs)
}

func TestMarkdownIgnorePatterns(t *testing.T) {
	root := mkTree(t, "a.md", "drafts/b.md", "sub/drafts/c.md", "sub/keep.md")
	docs, err := Markdown(root, []string{"**/drafts/**", "drafts"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "sub/keep.md"}, docs)
}

func TestMarkdownIgnoresWovenBook(t *testing.T) {
	// A previous weave run's book must never feed back into discovery.
	root := mkTree(t, "a.md", "book/a.md", "book/content.md")
	docs, err := Markdown(root, []string{"book/**"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, docs)
}

func TestExpandFileDirAndGlob(t *testing.T) {
	root := mkTree(t, "a.md", "sub/b.md")

	docs, err := Expand(filepath.Join(root, "a.md"), nil)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = Expand(root, nil)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = Expand(filepath.Join(root, "**", "*.md"), nil)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = Expand(filepath.Join(root, "missing.md"), nil)
	assert.Error(t, err)
}
