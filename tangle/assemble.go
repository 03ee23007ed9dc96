// Package tangle writes resolved artifacts to the filesystem. Tangle is
// one-directional and destructive: the document is the source of truth
// and any pre-existing file at a target path is overwritten.
package tangle

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/loomkit/loom/internal/fsio"
	"github.com/loomkit/loom/protocol"
)

// Assembler writes artifacts under a root directory.
type Assembler struct {
	// Root is the directory artifact target paths are resolved against.
	Root string

	Logger *slog.Logger
}

// New creates an Assembler writing under root.
func New(root string, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{Root: root, Logger: logger}
}

// Report summarizes an assembly run. Per-artifact failures are isolated:
// one failing artifact never blocks its siblings.
type Report struct {
	Written []string
	Errors  []error
}

// Failed reports whether any artifact failed to assemble.
func (r *Report) Failed() bool { return len(r.Errors) > 0 }

// Assemble writes every artifact, concatenating its ordered
// contributions separated by a single newline and terminating with a
// single trailing newline. Writes are atomic (temp file + rename).
func (a *Assembler) Assemble(artifacts []protocol.Artifact) *Report {
	report := &Report{}
	for _, artifact := range artifacts {
		target := filepath.Join(a.Root, filepath.FromSlash(artifact.TargetPath))
		if err := fsio.WriteFileAtomic(target, Assembled(artifact), 0o644); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("assemble %s: %w", artifact.TargetPath, err))
			a.Logger.Error("artifact write failed", "target", target, "error", err)
			continue
		}
		report.Written = append(report.Written, target)
		a.Logger.Info("code extracted", "target", target, "blocks", len(artifact.Contributions))
	}
	return report
}

// Assembled returns the exact bytes an artifact's file will contain:
// each contribution stripped of trailing newlines, joined with a single
// newline, plus one trailing newline. The weave inverse relies on this
// layout being deterministic.
func Assembled(artifact protocol.Artifact) []byte {
	parts := make([]string, len(artifact.Contributions))
	for i, c := range artifact.Contributions {
		parts[i] = strings.TrimRight(c.Content, "\n")
	}
	return []byte(strings.Join(parts, "\n") + "\n")
}

// ContributionSpans returns the byte range each contribution occupies
// in the assembled artifact, in contribution order. Used by weave to
// attribute edited file content back to individual blocks.
func ContributionSpans(artifact protocol.Artifact) [][2]int {
	spans := make([][2]int, len(artifact.Contributions))
	pos := 0
	for i, c := range artifact.Contributions {
		n := len(strings.TrimRight(c.Content, "\n"))
		spans[i] = [2]int{pos, pos + n}
		pos += n + 1 // separator or trailing newline
	}
	return spans
}
