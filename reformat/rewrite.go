package reformat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/loomkit/loom/document"
	"github.com/loomkit/loom/internal/fsio"
)

// Rewriter applies formatters to a document's extraction-eligible
// blocks and rewrites the document in place.
type Rewriter struct {
	Registry *Registry
	Logger   *slog.Logger
}

// NewRewriter creates a Rewriter over a formatter registry.
func NewRewriter(reg *Registry, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{Registry: reg, Logger: logger}
}

// Result describes one reformat pass over a document.
type Result struct {
	// Changed is true when at least one block's content changed and the
	// document was rewritten on disk.
	Changed bool

	// Formatted counts blocks whose content a formatter accepted,
	// whether or not it differed from the original.
	Formatted int

	// BlockErrors holds per-block formatter failures. A failing block
	// keeps its original content; the rest of the document still
	// reformats.
	BlockErrors []error
}

// Reformat runs every eligible block of the document through its
// language's formatter and, when anything changed, atomically rewrites
// the document file. Out-of-block bytes are preserved exactly.
func (rw *Rewriter) Reformat(ctx context.Context, doc *document.Document) (*Result, error) {
	source, res := rw.rewrite(ctx, doc)
	if !res.Changed {
		return res, nil
	}
	if err := fsio.WriteFileAtomic(doc.Path, []byte(source), 0o644); err != nil {
		return res, fmt.Errorf("rewrite %s: %w", doc.Path, err)
	}
	rw.Logger.Info("document reformatted", "path", doc.Path, "blocks", res.Formatted)
	return res, nil
}

// rewrite computes the new document source without touching disk.
// Blocks are processed in document order with a running offset delta,
// so each block's span is adjusted by the net growth of every block
// rewritten before it.
func (rw *Rewriter) rewrite(ctx context.Context, doc *document.Document) (string, *Result) {
	res := &Result{}
	source := doc.Source
	delta := 0

	// Unclosed blocks are formatted too: their content span runs to the
	// end of the document, so nothing after it can shift.
	for _, block := range doc.CodeBlocks() {
		if !block.Eligible() {
			continue
		}
		formatter := rw.Registry.Lookup(block.Language)
		if formatter == nil {
			continue
		}

		formatted, err := formatter.Format(ctx, block.Content)
		if err != nil {
			res.BlockErrors = append(res.BlockErrors, fmt.Errorf("%s: block %q: %w", doc.Path, block.Language, err))
			rw.Logger.Warn("formatter failed, block kept as is", "path", doc.Path, "language", block.Language, "error", err)
			continue
		}
		res.Formatted++

		// Fence content always ends at a line boundary; formatters that
		// strip the final newline would otherwise swallow the closing
		// fence's line break.
		if formatted != "" && !strings.HasSuffix(formatted, "\n") {
			formatted += "\n"
		}
		if formatted == block.Content {
			continue
		}

		start := block.ContentSpan.Start + delta
		end := block.ContentSpan.End + delta
		source = source[:start] + formatted + source[end:]
		delta += len(formatted) - (end - start)
		res.Changed = true
	}
	return source, res
}
