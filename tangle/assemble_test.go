package tangle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom/protocol"
)

func TestAssembled(t *testing.T) {
	tests := []struct {
		name     string
		contents []string
		want     string
	}{
		{
			name:     "single block",
			contents: []string{"def add(a, b):\n    return a + b\n"},
			want:     "def add(a, b):\n    return a + b\n",
		},
		{
			name:     "two blocks joined by one newline",
			contents: []string{"def add(a, b):\n    return a + b\n", "def sub(a, b):\n    return a - b\n"},
			want:     "def add(a, b):\n    return a + b\ndef sub(a, b):\n    return a - b\n",
		},
		{
			name:     "extra trailing newlines collapse",
			contents: []string{"x = 1\n\n\n", "y = 2"},
			want:     "x = 1\ny = 2\n",
		},
		{
			name:     "empty block",
			contents: []string{""},
			want:     "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact := protocol.Artifact{TargetPath: "out.py", Language: "python"}
			for i, c := range tt.contents {
				artifact.Contributions = append(artifact.Contributions, protocol.Contribution{
					DocPath:    "doc.md",
					BlockIndex: i,
					Language:   "python",
					Content:    c,
				})
			}
			assert.Equal(t, tt.want, string(Assembled(artifact)))
		})
	}
}

func TestAssembleWritesFiles(t *testing.T) {
	root := t.TempDir()
	asm := New(root, nil)

	artifacts := []protocol.Artifact{
		{
			TargetPath: "math_operations.py",
			Language:   "python",
			Contributions: []protocol.Contribution{
				{DocPath: "a.md", BlockIndex: 0, Language: "python", Content: "def add(a, b):\n    return a + b\n"},
			},
		},
		{
			TargetPath: "nested/util.rs",
			Language:   "rust",
			Contributions: []protocol.Contribution{
				{DocPath: "a.md", BlockIndex: 1, Language: "rust", Content: "fn main() {}\n"},
			},
		},
	}

	report := asm.Assemble(artifacts)
	require.False(t, report.Failed())
	assert.Len(t, report.Written, 2)

	got, err := os.ReadFile(filepath.Join(root, "math_operations.py"))
	require.NoError(t, err)
	assert.Equal(t, "def add(a, b):\n    return a + b\n", string(got))

	got, err = os.ReadFile(filepath.Join(root, "nested", "util.rs"))
	require.NoError(t, err)
	assert.Equal(t, "fn main() {}\n", string(got))
}

func TestAssembleOverwrites(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "main.py")
	require.NoError(t, os.WriteFile(target, []byte("stale\n"), 0o644))

	asm := New(root, nil)
	report := asm.Assemble([]protocol.Artifact{{
		TargetPath: "main.py",
		Language:   "python",
		Contributions: []protocol.Contribution{
			{DocPath: "doc.md", Language: "python", Content: "print('fresh')\n"},
		},
	}})
	require.False(t, report.Failed())

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "print('fresh')\n", string(got))
}

func TestAssembleIsolatesFailures(t *testing.T) {
	root := t.TempDir()
	// A regular file where a directory is needed makes the first artifact fail.
	require.NoError(t, os.WriteFile(filepath.Join(root, "blocked"), nil, 0o644))

	asm := New(root, nil)
	report := asm.Assemble([]protocol.Artifact{
		{
			TargetPath: "blocked/a.py",
			Language:   "python",
			Contributions: []protocol.Contribution{
				{DocPath: "doc.md", Language: "python", Content: "pass\n"},
			},
		},
		{
			TargetPath: "ok.py",
			Language:   "python",
			Contributions: []protocol.Contribution{
				{DocPath: "doc.md", Language: "python", Content: "pass\n"},
			},
		},
	})

	assert.Len(t, report.Errors, 1)
	assert.Len(t, report.Written, 1)
	_, err := os.Stat(filepath.Join(root, "ok.py"))
	assert.NoError(t, err)
}

func TestContributionSpans(t *testing.T) {
	artifact := protocol.Artifact{
		TargetPath: "out.py",
		Contributions: []protocol.Contribution{
			{Content: "abc\n"},
			{Content: "defgh\n"},
		},
	}
	spans := ContributionSpans(artifact)
	require.Len(t, spans, 2)
	assert.Equal(t, [2]int{0, 3}, spans[0])
	assert.Equal(t, [2]int{4, 9}, spans[1])

	body := string(Assembled(artifact))
	assert.Equal(t, "abc", body[spans[0][0]:spans[0][1]])
	assert.Equal(t, "defgh", body[spans[1][0]:spans[1][1]])
}
