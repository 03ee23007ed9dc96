// Package weave regenerates a document's code blocks from the source
// files previously tangled out of it. Weave is non-destructive: new
// document texts land under an output root, originals stay untouched.
package weave

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/loomkit/loom/document"
	"github.com/loomkit/loom/internal/fsio"
	"github.com/loomkit/loom/protocol"
	"github.com/loomkit/loom/tangle"
)

// DefaultBookDir is the sibling directory woven documents are written
// to when no output root is given.
const DefaultBookDir = "book"

// Weaver reads current artifact files and substitutes their content
// back into the contributing blocks.
type Weaver struct {
	// TangleRoot is where artifact target paths resolve, the same root
	// a prior tangle run wrote to.
	TangleRoot string
	// OutputRoot receives the woven documents.
	OutputRoot string
	// ScopeRoot is the folder the documents were discovered under.
	// Woven documents mirror their position below it, so two documents
	// with the same base name in different folders keep distinct output
	// paths. Empty means documents land at their base name.
	ScopeRoot string
	Protocol  protocol.Protocol
	Logger    *slog.Logger
}

// Report summarizes one weave run.
type Report struct {
	Written  []string
	Warnings []string
	Errors   []error
}

func (r *Report) Failed() bool { return len(r.Errors) > 0 }

// blockKey identifies one code block across the run.
type blockKey struct {
	docPath    string
	blockIndex int
}

// Weave resolves the documents under the given protocol, attributes the
// current bytes of every artifact file back to its contributing blocks,
// and writes the updated document texts under OutputRoot, expanding
// placeholder references as the final step. A missing artifact file
// leaves its blocks unchanged and records a warning.
func (w *Weaver) Weave(ctx context.Context, docs []*document.Document) *Report {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	report := &Report{}

	artifacts, resolveErrs := protocol.Resolve(docs, w.Protocol)
	report.Errors = append(report.Errors, resolveErrs...)

	edits := make(map[blockKey]string)
	for _, artifact := range artifacts {
		w.attribute(artifact, edits, report, logger)
	}

	inliner := &Inliner{Logger: logger}
	for _, doc := range docs {
		outPath := filepath.Join(w.OutputRoot, filepath.FromSlash(bookRelPath(w.ScopeRoot, doc.Path)))
		text := rewriteBlocks(doc, edits)
		text, inlineWarnings := inliner.Expand(ctx, text, filepath.Dir(doc.Path))
		report.Warnings = append(report.Warnings, inlineWarnings...)
		if err := fsio.WriteFileAtomic(outPath, []byte(text), 0o644); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("weave %s: %w", doc.Path, err))
			continue
		}
		report.Written = append(report.Written, outPath)
		logger.Info("document woven", "source", doc.Path, "output", outPath)
	}

	w.copyAssets(report)
	return report
}

// bookRelPath maps a document path to its location inside the book.
// Paths outside the scope root fall back to the base name.
func bookRelPath(scopeRoot, docPath string) string {
	if scopeRoot != "" {
		if rel, err := filepath.Rel(scopeRoot, docPath); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.Base(docPath)
}

// copyAssets mirrors non-markdown files under ScopeRoot into the book
// so images and other files the prose references resolve from the woven
// pages. Hidden entries and the book itself are skipped.
func (w *Weaver) copyAssets(report *Report) {
	if w.ScopeRoot == "" {
		return
	}
	if info, err := os.Stat(w.ScopeRoot); err != nil || !info.IsDir() {
		return
	}
	absOut, err := filepath.Abs(w.OutputRoot)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("copy assets: %w", err))
		return
	}

	walkErr := filepath.WalkDir(w.ScopeRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.ScopeRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if abs, absErr := filepath.Abs(path); absErr == nil && abs == absOut {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(w.ScopeRoot, path)
		if relErr != nil {
			return relErr
		}
		return fsio.CopyFile(path, filepath.Join(w.OutputRoot, rel))
	})
	if walkErr != nil {
		report.Errors = append(report.Errors, fmt.Errorf("copy assets: %w", walkErr))
	}
}

// attribute maps the current bytes of one artifact file onto its
// contributions. When the file matches the expected assembly nothing is
// recorded; a sole contributor absorbs the whole file; with several
// contributors the edit is located by anchoring unchanged contributions
// from both ends.
func (w *Weaver) attribute(artifact protocol.Artifact, edits map[blockKey]string, report *Report, logger *slog.Logger) {
	path := filepath.Join(w.TangleRoot, filepath.FromSlash(artifact.TargetPath))
	current, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		report.Warnings = append(report.Warnings, fmt.Sprintf("source file %s missing, blocks kept as written", artifact.TargetPath))
		logger.Warn("source file missing", "target", artifact.TargetPath)
		return
	}
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("read %s: %w", path, err))
		return
	}

	expected := tangle.Assembled(artifact)
	if string(current) == string(expected) {
		return
	}
	body := strings.TrimRight(string(current), "\n")

	if len(artifact.Contributions) == 1 {
		c := artifact.Contributions[0]
		edits[blockKey{c.DocPath, c.BlockIndex}] = body
		return
	}

	if !w.attributeAnchored(artifact, body, edits) {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("cannot attribute edits in %s to a single block, blocks kept as written", artifact.TargetPath))
		logger.Warn("ambiguous edit", "target", artifact.TargetPath, "contributions", len(artifact.Contributions))
	}
}

// attributeAnchored handles a multi-contributor artifact where exactly
// one contribution changed. Unchanged contributions anchor the file
// from the front and the back; the slice left in the middle belongs to
// the single edited contribution. Returns false when the file cannot be
// explained by a single-contribution edit.
func (w *Weaver) attributeAnchored(artifact protocol.Artifact, body string, edits map[blockKey]string) bool {
	expected := tangle.Assembled(artifact)
	spans := tangle.ContributionSpans(artifact)
	parts := make([]string, len(spans))
	for i, span := range spans {
		parts[i] = string(expected[span[0]:span[1]])
	}

	n := len(parts)
	prefix := 0
	rest := body
	for prefix < n {
		anchored := parts[prefix] + "\n"
		if !strings.HasPrefix(rest, anchored) {
			break
		}
		rest = rest[len(anchored):]
		prefix++
	}

	suffix := 0
	for suffix < n-prefix-1 {
		anchored := "\n" + parts[n-1-suffix]
		if !strings.HasSuffix(rest, anchored) {
			break
		}
		rest = rest[:len(rest)-len(anchored)]
		suffix++
	}

	if prefix+suffix != n-1 {
		return false
	}
	c := artifact.Contributions[prefix]
	edits[blockKey{c.DocPath, c.BlockIndex}] = rest
	return true
}

// rewriteBlocks applies the collected edits to one document's source
// using the same running offset delta as the reformat rewriter.
func rewriteBlocks(doc *document.Document, edits map[blockKey]string) string {
	source := doc.Source
	delta := 0
	for i, block := range doc.CodeBlocks() {
		body, ok := edits[blockKey{doc.Path, i}]
		if !ok {
			continue
		}
		content := body
		if content != "" {
			content += "\n"
		}
		if content == block.Content {
			continue
		}
		start := block.ContentSpan.Start + delta
		end := block.ContentSpan.End + delta
		source = source[:start] + content + source[end:]
		delta += len(content) - (end - start)
	}
	return source
}
