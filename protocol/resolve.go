package protocol

import (
	"fmt"
	"sort"

	"github.com/loomkit/loom/document"
)

// Contribution is one code block's share of an artifact.
type Contribution struct {
	// DocPath identifies the contributing document.
	DocPath string
	// BlockIndex is the block's position among the document's code
	// blocks, in document order.
	BlockIndex int
	// Language is the block's declared language tag.
	Language string
	// Content is the block body at resolution time.
	Content string
}

// Artifact is one tangle output file assembled from ordered
// contributions. Artifacts are ephemeral: computed per invocation,
// never persisted.
type Artifact struct {
	// TargetPath is the output path relative to the tangle root.
	TargetPath string
	// Language is the artifact's language tag.
	Language string
	// Contributions are concatenated in order to form the file.
	Contributions []Contribution
}

// ConflictError reports two contributions colliding on one artifact
// with incompatible languages. It aborts only that artifact's assembly.
type ConflictError struct {
	TargetPath string
	DocA       string
	LanguageA  string
	DocB       string
	LanguageB  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("protocol conflict on %s: %s declares %s, %s declares %s",
		e.TargetPath, e.DocA, e.LanguageA, e.DocB, e.LanguageB)
}

// Resolve computes the block-to-artifact mapping for the given protocol.
// Returned artifacts are deterministic: sorted by target path, with
// contributions ordered by (document path, block index). Conflicting
// artifacts are dropped and reported in the error slice; the remaining
// artifacts are still usable.
func Resolve(docs []*document.Document, proto Protocol) ([]Artifact, []error) {
	sorted := make([]*document.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	switch proto {
	case Located:
		return resolveLocated(sorted)
	default:
		return resolveDefault(sorted)
	}
}

// resolveDefault produces one artifact per (document, language), with
// the frontmatter output filename overriding the target stem. Two
// documents naming the same stem and language merge into one artifact.
func resolveDefault(docs []*document.Document) ([]Artifact, []error) {
	byPath := make(map[string]*Artifact)
	conflicted := make(map[string]bool)
	var order []string
	var errs []error

	for _, doc := range docs {
		stem := doc.OutputStem()
		for _, block := range indexedEligible(doc) {
			ext, ok := ExtensionFor(block.block.Language)
			if !ok {
				continue
			}
			target := stem + "." + ext
			contrib := Contribution{
				DocPath:    doc.Path,
				BlockIndex: block.index,
				Language:   block.block.Language,
				Content:    block.block.Content,
			}

			existing, seen := byPath[target]
			if !seen {
				byPath[target] = &Artifact{
					TargetPath:    target,
					Language:      block.block.Language,
					Contributions: []Contribution{contrib},
				}
				order = append(order, target)
				continue
			}
			if existing.Language != block.block.Language {
				if !conflicted[target] {
					conflicted[target] = true
					errs = append(errs, &ConflictError{
						TargetPath: target,
						DocA:       existing.Contributions[0].DocPath,
						LanguageA:  existing.Language,
						DocB:       doc.Path,
						LanguageB:  block.block.Language,
					})
				}
				continue
			}
			existing.Contributions = append(existing.Contributions, contrib)
		}
	}

	return collect(byPath, order, conflicted), errs
}

// resolveLocated groups blocks by their explicit location identifier
// across all documents. Blocks without a location fall back to the
// Default grouping so no eligible block is silently dropped.
func resolveLocated(docs []*document.Document) ([]Artifact, []error) {
	byLocation := make(map[string]*Artifact)
	conflicted := make(map[string]bool)
	var order []string
	var errs []error

	var unlocated []*document.Document

	for _, doc := range docs {
		hasUnlocated := false
		for _, block := range indexedEligible(doc) {
			loc := block.block.Attrs.Location()
			if loc == "" {
				hasUnlocated = true
				continue
			}
			ext, ok := ExtensionFor(block.block.Language)
			if !ok {
				continue
			}
			target := loc + "." + ext
			contrib := Contribution{
				DocPath:    doc.Path,
				BlockIndex: block.index,
				Language:   block.block.Language,
				Content:    block.block.Content,
			}

			existing, seen := byLocation[loc]
			if !seen {
				byLocation[loc] = &Artifact{
					TargetPath:    target,
					Language:      block.block.Language,
					Contributions: []Contribution{contrib},
				}
				order = append(order, loc)
				continue
			}
			if existing.Language != block.block.Language {
				if !conflicted[loc] {
					conflicted[loc] = true
					errs = append(errs, &ConflictError{
						TargetPath: existing.TargetPath,
						DocA:       existing.Contributions[0].DocPath,
						LanguageA:  existing.Language,
						DocB:       doc.Path,
						LanguageB:  block.block.Language,
					})
				}
				continue
			}
			existing.Contributions = append(existing.Contributions, contrib)
		}
		if hasUnlocated {
			unlocated = append(unlocated, filterUnlocated(doc))
		}
	}

	artifacts := collect(byLocation, order, conflicted)

	if len(unlocated) > 0 {
		fallback, fbErrs := resolveDefault(unlocated)
		artifacts = append(artifacts, fallback...)
		errs = append(errs, fbErrs...)
	}

	return artifacts, errs
}

// filterUnlocated returns a shallow view of doc whose located blocks are
// stripped of the tangle marker, so the Default fallback only sees the
// blocks that carry no location identifier.
func filterUnlocated(doc *document.Document) *document.Document {
	out := &document.Document{
		Path:        doc.Path,
		Source:      doc.Source,
		Frontmatter: doc.Frontmatter,
	}
	for _, seg := range doc.Segments {
		b, ok := seg.(*document.CodeBlock)
		if !ok || !b.Eligible() || b.Attrs.Location() == "" {
			out.Segments = append(out.Segments, seg)
			continue
		}
		// Drop the located block from the fallback view.
		copied := *b
		copied.Attrs = document.Attributes{}
		out.Segments = append(out.Segments, &copied)
	}
	return out
}

// indexedBlock pairs a code block with its index among the document's
// code blocks.
type indexedBlock struct {
	index int
	block *document.CodeBlock
}

func indexedEligible(doc *document.Document) []indexedBlock {
	var out []indexedBlock
	for i, b := range doc.CodeBlocks() {
		if b.Eligible() {
			out = append(out, indexedBlock{index: i, block: b})
		}
	}
	return out
}

// collect orders artifacts deterministically and drops conflicted ones.
func collect(byKey map[string]*Artifact, order []string, conflicted map[string]bool) []Artifact {
	var out []Artifact
	sort.Strings(order)
	for _, key := range order {
		if conflicted[key] {
			continue
		}
		a := byKey[key]
		sort.SliceStable(a.Contributions, func(i, j int) bool {
			ci, cj := a.Contributions[i], a.Contributions[j]
			if ci.DocPath != cj.DocPath {
				return ci.DocPath < cj.DocPath
			}
			return ci.BlockIndex < cj.BlockIndex
		})
		out = append(out, *a)
	}
	return out
}
