package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTripIdentity(t *testing.T) {
	inputs := map[string]string{
		"empty":        "",
		"prose only":   "# Title\n\nSome prose.\n",
		"no final newline": "# Title\n```python\nx = 1\n```",
		"frontmatter": "---\noutput_filename: app\n---\n\nBody text.\n",
		"mixed": "---\noutput_filename: math_operations\nbrief: arithmetic\n---\n" +
			"Intro prose.\n\n```{.python .tangle}\ndef add(a, b):\n    return a + b\n```\n\nMore prose.\n" +
			"~~~~rust\nfn main() {}\n~~~~\ntrailing\n",
		"unclosed fence":  "before\n```python\nx = 1\n",
		"malformed fence": "``not a fence\ntext\n",
		"crlf":            "---\r\noutput_filename: app\r\n---\r\nprose\r\n```python\r\nx = 1\r\n```\r\n",
		"blank lines":     "\n\n\n```go\n\n\n```\n\n\n",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			doc := Parse("test.md", input)
			assert.Equal(t, input, doc.Serialize())
		})
	}
}

func TestParse_SegmentsCoverDocument(t *testing.T) {
	input := "---\noutput_filename: app\n---\nprose\n```python\nx = 1\n```\ntail\n"
	doc := Parse("test.md", input)

	pos := 0
	if doc.Frontmatter != nil {
		require.Equal(t, 0, doc.Frontmatter.Span.Start)
		pos = doc.Frontmatter.Span.End
	}
	for _, seg := range doc.Segments {
		switch s := seg.(type) {
		case *Prose:
			assert.Equal(t, pos, s.Span.Start)
			assert.Equal(t, input[s.Span.Start:s.Span.End], s.Raw())
			pos = s.Span.End
		case *CodeBlock:
			assert.Equal(t, pos, s.Span.Start)
			assert.Equal(t, input[s.Span.Start:s.Span.End], s.Raw())
			pos = s.Span.End
		}
	}
	assert.Equal(t, len(input), pos)
}

func TestParse_Frontmatter(t *testing.T) {
	input := "---\noutput_filename: math_operations\nbrief: arithmetic helpers\ncustom: 7\n---\nbody\n"
	doc := Parse("ops.md", input)

	require.NotNil(t, doc.Frontmatter)
	assert.Equal(t, "math_operations", doc.Frontmatter.OutputFilename)
	assert.Equal(t, "arithmetic helpers", doc.Frontmatter.Brief)
	assert.Equal(t, 7, doc.Frontmatter.Fields["custom"])
	assert.Equal(t, "math_operations", doc.OutputStem())
}

func TestParse_FrontmatterOnlyAtOffsetZero(t *testing.T) {
	input := "\n---\noutput_filename: app\n---\n"
	doc := Parse("test.md", input)
	assert.Nil(t, doc.Frontmatter)
	assert.Equal(t, input, doc.Serialize())
}

func TestParse_UnclosedFrontmatterIsProse(t *testing.T) {
	input := "---\noutput_filename: app\nno closing delimiter\n"
	doc := Parse("test.md", input)
	assert.Nil(t, doc.Frontmatter)
	require.Len(t, doc.Segments, 1)
	_, isProse := doc.Segments[0].(*Prose)
	assert.True(t, isProse)
}

func TestParse_CodeBlockContent(t *testing.T) {
	input := "```{.python .tangle}\ndef f():\n    pass\n```\n"
	doc := Parse("test.md", input)

	blocks := doc.CodeBlocks()
	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.Equal(t, "python", b.Language)
	assert.True(t, b.Eligible())
	assert.True(t, b.Closed())
	assert.Equal(t, "def f():\n    pass\n", b.Content)
	assert.Equal(t, b.Content, input[b.ContentSpan.Start:b.ContentSpan.End])
	assert.Equal(t, byte('`'), b.Fence.Char)
	assert.Equal(t, 3, b.Fence.Length)
}

func TestParse_BareLanguageNotEligible(t *testing.T) {
	doc := Parse("test.md", "```python\nx = 1\n```\n")
	blocks := doc.CodeBlocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, "python", blocks[0].Language)
	assert.False(t, blocks[0].Eligible())
}

func TestParse_LocationAttribute(t *testing.T) {
	doc := Parse("test.md", "```{.rust .tangle location=counter-button}\nfn f() {}\n```\n")
	blocks := doc.CodeBlocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, "counter-button", blocks[0].Attrs.Location())
	assert.Equal(t, "rust", blocks[0].Language)
}

func TestParse_UnclosedFenceExtendsToEOF(t *testing.T) {
	input := "prose\n```python tangle\nx = 1\ny = 2\n"
	doc := Parse("test.md", input)

	blocks := doc.CodeBlocks()
	require.Len(t, blocks, 1)
	assert.False(t, blocks[0].Closed())
	assert.Equal(t, "x = 1\ny = 2\n", blocks[0].Content)
	assert.True(t, blocks[0].Eligible())
	assert.Equal(t, input, doc.Serialize())
}

func TestParse_LongerClosingFenceCloses(t *testing.T) {
	input := "```python\nx = 1\n`````\nafter\n"
	doc := Parse("test.md", input)
	blocks := doc.CodeBlocks()
	require.Len(t, blocks, 1)
	assert.True(t, blocks[0].Closed())
	assert.Equal(t, "x = 1\n", blocks[0].Content)
}

func TestParse_TildeFence(t *testing.T) {
	input := "~~~~{.c .tangle}\nint main() {}\n~~~~\n"
	doc := Parse("test.md", input)
	blocks := doc.CodeBlocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, byte('~'), blocks[0].Fence.Char)
	assert.Equal(t, 4, blocks[0].Fence.Length)
	// A shorter run must not close the block.
	short := "~~~~c\nx\n~~~\n"
	doc2 := Parse("test.md", short)
	require.Len(t, doc2.CodeBlocks(), 1)
	assert.False(t, doc2.CodeBlocks()[0].Closed())
}

func TestOutputStem_FallsBackToBaseName(t *testing.T) {
	doc := Parse("docs/chapter/hello_world.md", "no frontmatter\n")
	assert.Equal(t, "hello_world", doc.OutputStem())
}
