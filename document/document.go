// Package document provides the span-tracked segment model for literate
// markdown documents. A parsed Document covers the entire byte range of
// its source: concatenating the frontmatter and all segments reproduces
// the original text byte for byte.
package document

import "strings"

// Span is a half-open byte range [Start, End) within the document text
// the segment was parsed from. Spans are only valid against that exact
// text; any rewrite invalidates all spans at or after the edit point.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Segment is one contiguous piece of a document, either Prose or CodeBlock.
type Segment interface {
	// Raw returns the exact source bytes of the segment.
	Raw() string
}

// Prose is opaque document text outside of code fences. It is never
// interpreted and always copied verbatim on output.
type Prose struct {
	Text string
	Span Span
}

// Raw returns the prose text unchanged.
func (p *Prose) Raw() string { return p.Text }

// FenceStyle records the delimiter used to open a code block so rewrites
// can regenerate a compatible closing fence.
type FenceStyle struct {
	// Char is the fence character, '`' or '~'.
	Char byte
	// Length is the repetition count of the opening fence (>= 3).
	Length int
}

// Marker returns the fence delimiter string, e.g. "```".
func (f FenceStyle) Marker() string { return strings.Repeat(string(f.Char), f.Length) }

// Attributes are the class and key/value markers attached to a fence
// header, e.g. {.python .tangle location=counter-button}.
type Attributes struct {
	Classes []string
	Keys    map[string]string
}

// HasClass reports whether the attribute set carries the given class.
func (a Attributes) HasClass(name string) bool {
	for _, c := range a.Classes {
		if c == name {
			return true
		}
	}
	return false
}

// Location returns the explicit location identifier for the AImM
// protocol, or "" if the block carries none.
func (a Attributes) Location() string { return a.Keys["location"] }

// Class names recognized as the extraction marker. "tangle" is the
// canonical form; "cb-code" is accepted for documents produced by older
// bookbinding runs.
const (
	ClassTangle = "tangle"
	ClassCBCode = "cb-code"
)

// CodeBlock is a fenced code region.
type CodeBlock struct {
	// Language is the declared language tag, e.g. "python".
	Language string
	// Attrs holds the remaining fence header markers.
	Attrs Attributes
	// Fence is the delimiter style of the opening fence.
	Fence FenceStyle
	// Span covers the whole block including both fence lines.
	Span Span
	// ContentSpan covers the bytes strictly between the fences.
	ContentSpan Span
	// Content is the raw text strictly between the fences, including
	// indentation and trailing newline conventions.
	Content string

	// header and trailer preserve the exact fence lines (with their
	// line endings) so serialization is byte-identical. trailer is
	// empty for a block left open at end of document.
	header  string
	trailer string
}

// Raw returns the exact source bytes of the block including fences.
func (b *CodeBlock) Raw() string { return b.header + b.Content + b.trailer }

// Closed reports whether the block had a closing fence in the source.
func (b *CodeBlock) Closed() bool { return b.trailer != "" }

// Eligible reports whether the block participates in tangle/weave.
func (b *CodeBlock) Eligible() bool {
	return b.Attrs.HasClass(ClassTangle) || b.Attrs.HasClass(ClassCBCode)
}

// Frontmatter is the optional YAML metadata block at the top of a
// document. Raw preserves the exact source bytes including delimiters.
type Frontmatter struct {
	// OutputFilename is the tangle target stem, without extension.
	OutputFilename string `yaml:"output_filename"`
	// Brief is a one-line description used by the book overview.
	Brief string `yaml:"brief"`
	// Details is a longer description used by the book overview.
	Details string `yaml:"details"`

	// Fields holds all parsed keys, including the typed ones above.
	Fields map[string]any `yaml:"-"`

	Raw  string `yaml:"-"`
	Span Span   `yaml:"-"`
}

// Document is one parsed literate source file.
type Document struct {
	// Path identifies the document, stable across operations.
	Path string
	// Source is the exact text the document was parsed from.
	Source string
	// Frontmatter is nil when the document has no leading metadata block.
	Frontmatter *Frontmatter
	// Segments cover the remainder of the document in order, with no
	// gaps and no overlaps.
	Segments []Segment
}

// Serialize reproduces the original document text byte for byte.
func (d *Document) Serialize() string {
	var sb strings.Builder
	sb.Grow(len(d.Source))
	if d.Frontmatter != nil {
		sb.WriteString(d.Frontmatter.Raw)
	}
	for _, seg := range d.Segments {
		sb.WriteString(seg.Raw())
	}
	return sb.String()
}

// CodeBlocks returns the document's code blocks in document order.
func (d *Document) CodeBlocks() []*CodeBlock {
	var blocks []*CodeBlock
	for _, seg := range d.Segments {
		if b, ok := seg.(*CodeBlock); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// EligibleBlocks returns the extraction-eligible code blocks in document
// order, paired with their indices into CodeBlocks.
func (d *Document) EligibleBlocks() []*CodeBlock {
	var blocks []*CodeBlock
	for _, b := range d.CodeBlocks() {
		if b.Eligible() {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// OutputStem returns the tangle target stem for the document: the
// frontmatter output filename when present, else the document's own base
// name without extension.
func (d *Document) OutputStem() string {
	if d.Frontmatter != nil && d.Frontmatter.OutputFilename != "" {
		return d.Frontmatter.OutputFilename
	}
	base := d.Path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}
